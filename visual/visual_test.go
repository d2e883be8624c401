package visual

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/llm/testutil"
)

func TestGenerate_Success(t *testing.T) {
	want := deck.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}
	gen := &testutil.MockImageGenerator{Image: want}

	img, ok := New(gen).Generate(context.Background(), "a glowing network")
	assert.True(t, ok)
	assert.Equal(t, want, img)

	assert.Equal(t, []string{"Generate a high quality, professional, abstract business background image. Style: Modern, Minimalist, Tech, Corporate Memorable. Context: a glowing network"}, gen.Prompts())
	assert.Equal(t, []string{"16:9"}, gen.AspectRatios())
}

func TestGenerate_FailuresAreAbsorbed(t *testing.T) {
	tests := map[string]*testutil.MockImageGenerator{
		"error": {Err: errors.New("safety filter")},
		"empty": {},
	}
	for name, gen := range tests {
		t.Run(name, func(t *testing.T) {
			img, ok := New(gen).Generate(context.Background(), "p")
			assert.False(t, ok)
			assert.True(t, img.IsZero())
			assert.Equal(t, 1, gen.Calls(), "no retries")
		})
	}
}

func TestGenerate_Timeout(t *testing.T) {
	gen := &testutil.MockImageGenerator{Gate: make(chan struct{})}
	defer close(gen.Gate)

	start := time.Now()
	_, ok := New(gen, WithTimeout(50*time.Millisecond)).Generate(context.Background(), "p")
	assert.False(t, ok)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestGenerate_NilSynthesizer(t *testing.T) {
	var s *Synthesizer
	_, ok := s.Generate(context.Background(), "p")
	assert.False(t, ok)
}
