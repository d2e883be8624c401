package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format names an export serialization.
type Format string

const (
	// FormatPPTX produces an editable PowerPoint deck.
	FormatPPTX Format = "pptx"

	// FormatJSON produces the deck as JSON.
	FormatJSON Format = "json"

	// FormatMarkdown produces a markdown outline with speaker notes.
	FormatMarkdown Format = "md"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	Name        Format
	MIMEType    string
	Extension   string
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatPPTX: {
		Name:        FormatPPTX,
		MIMEType:    "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		Extension:   ".pptx",
		Description: "PowerPoint presentation with images and speaker notes",
	},
	FormatJSON: {
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "Deck as JSON",
	},
	FormatMarkdown: {
		Name:        FormatMarkdown,
		MIMEType:    "text/markdown; charset=utf-8",
		Extension:   ".md",
		Description: "Markdown outline with speaker notes",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat resolves a format name, case-insensitively. Empty means pptx.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if s == "" {
		return FormatPPTX, nil
	}
	if s == "markdown" {
		return FormatMarkdown, nil
	}
	if _, ok := FormatRegistry[Format(s)]; !ok {
		return "", fmt.Errorf("unknown export format %q (want one of %s)", s, strings.Join(FormatNames(), ", "))
	}
	return Format(s), nil
}

// FormatNames lists registered format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
