package export

import (
	"fmt"
	"strings"

	"github.com/c360studio/repodeck/deck"
)

// Markdown renders d as an outline with visuals and speaker notes.
func Markdown(d *deck.Deck) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", d.ProjectName)
	if d.Tagline != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", d.Tagline)
	}

	for i, s := range d.Slides {
		sb.WriteString("---\n\n")
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, s.Title)
		fmt.Fprintf(&sb, "`%s`\n\n", s.Kind.Label())
		for _, b := range s.Bullets {
			fmt.Fprintf(&sb, "- %s\n", b)
		}
		if len(s.Bullets) > 0 {
			sb.WriteString("\n")
		}
		if s.Highlight != "" {
			fmt.Fprintf(&sb, "> **%s**\n\n", s.Highlight)
		}
		fmt.Fprintf(&sb, "**Visual:** %s\n\n", s.VisualPrompt)
		if s.SpeakerNotes != "" {
			fmt.Fprintf(&sb, "**Speaker notes:** %s\n\n", s.SpeakerNotes)
		}
	}
	return sb.String()
}
