// Package deps checks that the external programs the player drives are installed.
package deps

import (
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/samber/lo"
)

// Requirement is one external program.
type Requirement struct {
	Name string
	// Purpose is shown next to a missing program.
	Purpose string
	// Optional programs are reported but never fail the check.
	Optional bool
}

// Default lists the programs used by the mpv engine and the YouTube resolver.
func Default(mpvPath string) []Requirement {
	return []Requirement{
		{Name: lo.Ternary(mpvPath == "", "mpv", mpvPath), Purpose: "media engine"},
		{Name: "yt-dlp", Purpose: "YouTube source resolution", Optional: true},
	}
}

// Checker verifies that requirements are available in PATH.
type Checker struct {
	requirements []Requirement
	lookPath     func(string) (string, error)
}

// NewChecker creates a checker for reqs.
func NewChecker(reqs ...Requirement) *Checker {
	return &Checker{requirements: reqs, lookPath: exec.LookPath}
}

// IsAvailable checks if a single program is in PATH.
func (c *Checker) IsAvailable(name string) bool {
	_, err := c.lookPath(name)
	return err == nil
}

// CheckAll returns a *MissingDepsError naming every missing required program.
func (c *Checker) CheckAll() error {
	return c.check(io.Discard)
}

// CheckAndPrint writes one status line per program to w and returns the same
// error as CheckAll.
func (c *Checker) CheckAndPrint(w io.Writer) error {
	return c.check(w)
}

func (c *Checker) check(w io.Writer) error {
	var missing []string
	for _, req := range c.requirements {
		path, err := c.lookPath(req.Name)
		switch {
		case err == nil:
			fmt.Fprintf(w, "[OK] %s (%s)\n", req.Name, path)
		case req.Optional:
			fmt.Fprintf(w, "[WARN] '%s' not found in PATH, %s disabled\n", req.Name, req.Purpose)
		default:
			fmt.Fprintf(w, "[ERROR] '%s' not found in PATH\n", req.Name)
			fmt.Fprintf(w, "[INFO]  Install '%s' (%s) and retry\n", req.Name, req.Purpose)
			missing = append(missing, req.Name)
		}
	}

	if len(missing) > 0 {
		return &MissingDepsError{Dependencies: missing}
	}
	return nil
}

// MissingDepsError is returned when required programs are missing.
type MissingDepsError struct {
	Dependencies []string
}

func (e *MissingDepsError) Error() string {
	return "missing dependencies: " + strings.Join(e.Dependencies, ", ")
}
