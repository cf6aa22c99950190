package include

import "fmt"

// Warning records a non-fatal degradation observed during resolution, such
// as an anchor that matched no element. The run continues; the caller reads
// the collected warnings after it completes.
type Warning struct {
	File    string // file whose include directive produced the warning
	Src     string // the directive's src value as written
	Anchor  string // anchor portion, if any
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: include %q: %s", w.File, w.Src, w.Message)
}
