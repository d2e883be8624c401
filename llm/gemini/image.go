package gemini

import (
	"context"
	"fmt"

	"github.com/c360studio/repodeck/deck"
	"google.golang.org/genai"
)

// DefaultImageModel is the model used for slide visuals.
const DefaultImageModel = "gemini-2.5-flash-image"

// ImageModel generates raster images from text prompts.
type ImageModel struct {
	client *genai.Client
	model  string
	opts   options
}

// NewImageModel creates an image model.
func NewImageModel(client *genai.Client, model string, opts ...Option) *ImageModel {
	if model == "" {
		model = DefaultImageModel
	}
	return &ImageModel{
		client: client,
		model:  model,
		opts:   buildOptions(opts),
	}
}

// GenerateImage returns the first inline image in the model's reply.
// A reply without image data yields a zero Image and no error.
func (m *ImageModel) GenerateImage(ctx context.Context, prompt, aspectRatio string) (deck.Image, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: aspectRatio},
		Temperature:        m.opts.temperature,
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, cfg)
	if err != nil {
		return deck.Image{}, fmt.Errorf("gemini: generate image: %w", err)
	}

	return firstInlineImage(resp), nil
}

func firstInlineImage(resp *genai.GenerateContentResponse) deck.Image {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return deck.Image{}
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = "image/png"
		}
		return deck.Image{MIMEType: mime, Data: part.InlineData.Data}
	}
	return deck.Image{}
}
