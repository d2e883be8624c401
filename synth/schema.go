package synth

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/c360studio/repodeck/deck"
)

// wireDeck is the response shape requested from the model. Pointer fields
// distinguish a missing value from an empty one.
type wireDeck struct {
	ProjectName *string      `json:"projectName" jsonschema:"description=Name of the project"`
	Tagline     *string      `json:"tagline" jsonschema:"description=One catchy sentence describing the project"`
	Slides      *[]wireSlide `json:"slides" jsonschema:"description=Slides in presentation order; the first is the title slide"`
}

type wireSlide struct {
	ID           *string   `json:"id,omitempty"`
	Kind         *string   `json:"kind" jsonschema:"description=Narrative role of the slide"`
	Title        *string   `json:"title" jsonschema:"description=A punchy headline"`
	Bullets      *[]string `json:"bullets" jsonschema:"description=3-5 concise bullet points"`
	SpeakerNotes *string   `json:"speakerNotes" jsonschema:"description=What a presenter would say"`
	VisualPrompt *string   `json:"visualPrompt" jsonschema:"description=Abstract image idea for the slide"`
	Highlight    *string   `json:"highlight,omitempty" jsonschema:"description=A key statistic or phrase"`
}

// JSONSchemaExtend restricts kind to the closed slide kind enumeration.
func (wireSlide) JSONSchemaExtend(s *jsonschema.Schema) {
	if kind, ok := s.Properties.Get("kind"); ok {
		for _, name := range deck.KindNames() {
			kind.Enum = append(kind.Enum, name)
		}
	}
}

// Native structured-output name and description of the deck schema.
const (
	schemaName        = "pitch_deck"
	schemaDescription = "An investor pitch deck generated from a project's README"
)

// ResponseSchema reflects the deck response schema.
func ResponseSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(&wireDeck{})
	s.Title = "PitchDeck"
	return s
}

// ResponseSchemaJSON is ResponseSchema rendered as indented JSON.
func ResponseSchemaJSON() ([]byte, error) {
	return json.MarshalIndent(ResponseSchema(), "", "  ")
}
