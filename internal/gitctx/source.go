package gitctx

import (
	"errors"
	"fmt"
	"strings"
)

// Mode selects which changes are diffed.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeStaged Mode = "staged"
	ModeFile   Mode = "file"
)

// ParseMode parses a mode name. The empty string selects ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeStaged:
		return ModeStaged, nil
	case ModeFile:
		return ModeFile, nil
	default:
		return "", fmt.Errorf("unknown diff mode %q (want all, staged or file)", s)
	}
}

// Source identifies the changes to analyze.
type Source struct {
	Mode Mode   `json:"mode"`
	Path string `json:"path,omitempty"`
}

// AllChanges is the default source.
var AllChanges = Source{Mode: ModeAll}

// Validate checks that the source is complete.
func (s Source) Validate() error {
	switch s.Mode {
	case ModeAll, ModeStaged:
		return nil
	case ModeFile:
		if strings.TrimSpace(s.Path) == "" {
			return errors.New("file mode requires a path")
		}
		return nil
	default:
		return fmt.Errorf("unknown diff mode %q", s.Mode)
	}
}

// String describes the source for user-facing messages.
func (s Source) String() string {
	switch s.Mode {
	case ModeStaged:
		return "staged changes"
	case ModeFile:
		return s.Path
	default:
		return "all changes"
	}
}

func (s Source) gitArgs(opts DiffOptions) []string {
	var args []string
	if s.Mode == ModeStaged {
		args = append(args, "--staged")
	}
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	args = append(args, "--")
	if s.Mode == ModeFile {
		args = append(args, s.Path)
	}
	return args
}
