// Package events publishes render-completion notifications so downstream
// site assembly can react to rebuilt documents.
package events

import (
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// RenderCompleted is the payload published after every successful render run.
type RenderCompleted struct {
	RunID          string    `json:"run_id"`
	RootFile       string    `json:"root_file"`
	DynamicSources []string  `json:"dynamic_sources,omitempty"`
	WarningCount   int       `json:"warning_count"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Publisher delivers pipeline events.
type Publisher interface {
	RenderCompleted(evt RenderCompleted) error
	Close()
}

// NATSPublisher publishes events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to NATS. The connection is long-lived and shared
// across runs.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("docweave"))
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEvents, "connect to NATS").
			WithContext("url", url).Build()
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) RenderCompleted(evt RenderCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryEvents, "marshal event").Build()
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryEvents, "publish event").
			WithContext("subject", p.subject).Build()
	}
	return nil
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// NoopPublisher discards events; used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) RenderCompleted(RenderCompleted) error { return nil }
func (NoopPublisher) Close()                                {}
