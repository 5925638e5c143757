// Package color defines the narrow terminal-coloring interface spec §1
// names as an external collaborator, with one gookit/color-backed
// implementation and one no-op.
package color

import (
	"os"

	"github.com/gookit/color"
)

// Colorizer renders status words for CLI output. It is never used for log
// records, only for the run/list/validate/show commands' terminal output.
type Colorizer interface {
	OK(s string) string
	Warn(s string) string
	Fail(s string) string
}

// gookitColorizer implements Colorizer with github.com/gookit/color.
type gookitColorizer struct{}

func (gookitColorizer) OK(s string) string   { return color.FgGreen.Render(s) }
func (gookitColorizer) Warn(s string) string { return color.FgYellow.Render(s) }
func (gookitColorizer) Fail(s string) string { return color.FgRed.Render(s) }

// noopColorizer returns its input unchanged.
type noopColorizer struct{}

func (noopColorizer) OK(s string) string   { return s }
func (noopColorizer) Warn(s string) string { return s }
func (noopColorizer) Fail(s string) string { return s }

// New selects a Colorizer per spec §6: --no-color forces the no-op;
// otherwise an unset or "dumb" TERM also forces it.
func New(noColor bool) Colorizer {
	if noColor || !termSupportsColor() {
		return noopColorizer{}
	}
	return gookitColorizer{}
}

func termSupportsColor() bool {
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}
