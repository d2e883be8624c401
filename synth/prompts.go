package synth

import (
	"fmt"
	"strings"
)

// deckPrompt is the analyst instruction. Placeholders are the repository
// name and the truncated documentation.
const deckPrompt = `You are a world-class Venture Capital Analyst and Product Manager.
Your task is to analyze the following GitHub repository README and create a compelling, professional Investor Pitch Deck.

Repository Name: %s

README Content:
%s

---

Create a JSON response representing the slide deck.
The deck should strictly follow this structure:
1. Title Slide (Project Name, Catchy Tagline)
2. The Problem (What pain point does this solve?)
3. The Solution (How does this repo solve it?)
4. Market Opportunity (Who is this for? Why now?)
5. Product / Tech (Key features, tech stack advantages)
6. Business Model (How could this make money? or Open Source strategy)
7. Competition (Why is this better?)
8. Future Vision / Roadmap

For each slide, provide:
- kind: One of [%s]
- title: A punchy headline for the slide.
- bullets: 3-5 concise, impactful bullet points.
- speakerNotes: A short paragraph of what a presenter would say.
- visualPrompt: A creative prompt to describe a background image or diagram that represents this slide concept abstractly (e.g., "A futuristic glowing network diagram", "A minimalist isometric server room").
- highlight: A single key statistic or phrase to display prominently (optional).`

// schemaSystemPrompt is sent to chat-completion backends. Not every
// OpenAI-compatible server honors response_format, so the schema is repeated
// here. The placeholder is the JSON schema.
const schemaSystemPrompt = `You produce investor pitch decks as JSON.

Respond with a single JSON object that validates against this JSON Schema. Do not include any text outside the JSON object.

%s`

func formatDeckPrompt(repoName, docs string, kinds []string) string {
	return fmt.Sprintf(deckPrompt, repoName, docs, strings.Join(kinds, ", "))
}
