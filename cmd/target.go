package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// linkLength is the length of a hex-encoded dat link.
const linkLength = 64

// Target is a parsed download argument.
type Target struct {
	Link string
	// Files is the selection after the link's ':' suffix; nil means the
	// whole share.
	Files []string
}

// ParseTarget parses "[dat:]//<link>[:file,file...]". The scheme and the
// slashes are optional.
func ParseTarget(raw string) (Target, error) {
	s := strings.Replace(raw, "dat://", "", 1)
	s = strings.Replace(s, "//", "", 1)

	parts := strings.Split(s, ":")
	t := Target{Link: parts[0]}
	if len(parts) > 1 {
		t.Files = lo.Compact(strings.Split(parts[len(parts)-1], ","))
		if len(t.Files) == 0 {
			t.Files = nil
		}
	}
	if len(t.Link) != linkLength {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidLink, raw)
	}
	return t, nil
}
