package metadata

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PathStep is one step from the document root: an object key or array index
type PathStep struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path renders steps as views[2].implementations[0].michelsonStorageView
type Path []PathStep

func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			fmt.Fprintf(&b, "[%d]", s.Index)
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

func (p Path) key(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathStep{Key: k})
}

func (p Path) index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathStep{Index: i, IsIndex: true})
}

// DecodeError reports a document value that does not have the expected shape
type DecodeError struct {
	Path     Path
	Expected string
	Actual   json.RawMessage
}

func (e *DecodeError) Error() string {
	actual := string(e.Actual)
	if len(actual) > 80 {
		actual = actual[:80] + "..."
	}
	if actual == "" {
		actual = "nothing"
	}
	return fmt.Sprintf("at %s: expected %s, got %s", e.Path, e.Expected, actual)
}

// MarshalJSON exposes the error as {path, expected, actual}
func (e *DecodeError) MarshalJSON() ([]byte, error) {
	actual := e.Actual
	if len(actual) == 0 {
		actual = json.RawMessage("null")
	}
	return json.Marshal(struct {
		Path     string          `json:"path"`
		Expected string          `json:"expected"`
		Actual   json.RawMessage `json:"actual"`
	}{e.Path.String(), e.Expected, actual})
}
