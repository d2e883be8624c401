package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFetcher struct {
	name string
	refs []string
}

func (r *recordingFetcher) Fetch(_ context.Context, ref string) (*Document, error) {
	r.refs = append(r.refs, ref)
	return &Document{Name: r.name, Content: ref}, nil
}

func TestRouter(t *testing.T) {
	gh := &recordingFetcher{name: "github"}
	web := &recordingFetcher{name: "web"}
	local := &recordingFetcher{name: "local"}
	r := &Router{GitHub: gh, Web: web, Local: local}

	tests := map[string]string{
		"https://github.com/acme/widget": "github",
		"  https://github.com/acme/x  ":  "github",
		"https://widget.dev/docs":        "web",
		"./widget":                       "local",
	}
	for ref, want := range tests {
		doc, err := r.Fetch(context.Background(), ref)
		require.NoError(t, err, ref)
		assert.Equal(t, want, doc.Name, ref)
	}

	_, err := r.Fetch(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRouter_MissingFetcher(t *testing.T) {
	r := &Router{GitHub: &recordingFetcher{}}
	_, err := r.Fetch(context.Background(), "./docs")
	assert.ErrorIs(t, err, ErrNotFound)
}
