package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/repodeck/llm/gemini"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func writeFixture(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func startServer(t *testing.T, dir string) (*httptest.Server, *server) {
	t.Helper()
	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)
	s := newServer(fixtures, slog.New(slog.DiscardHandler))
	ts := httptest.NewServer(s.routes())
	t.Cleanup(ts.Close)
	return ts, s
}

func TestLoadFixtures_BaseOnly(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "gemini-3-flash-preview.json", []byte(`{"projectName":"Widget"}`))
	writeFixture(t, dir, "gemini-2.5-flash-image.png", pngBytes)

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)
	require.Len(t, fixtures, 2)

	text := fixtures["gemini-3-flash-preview"]
	require.Len(t, text, 1)
	assert.Equal(t, `{"projectName":"Widget"}`, text[0].Text)

	image := fixtures["gemini-2.5-flash-image"]
	require.Len(t, image, 1)
	assert.Equal(t, "image/png", image[0].MIMEType)
	assert.Equal(t, pngBytes, image[0].Data)
}

func TestLoadFixtures_Sequential(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck.2.json", []byte(`{"n":2}`))
	writeFixture(t, dir, "deck.1.json", []byte(`{"n":1}`))
	writeFixture(t, dir, "deck.json", []byte(`{"n":"fallback"}`))

	fixtures, err := loadFixtures(dir)
	require.NoError(t, err)

	seq := fixtures["deck"]
	require.Len(t, seq, 3)
	assert.Equal(t, `{"n":1}`, seq[0].Text)
	assert.Equal(t, `{"n":2}`, seq[1].Text)
	assert.Equal(t, `{"n":"fallback"}`, seq[2].Text)
}

func TestLoadFixtures_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		dir := t.TempDir()
		writeFixture(t, dir, "deck.json", []byte(`{not json`))
		_, err := loadFixtures(dir)
		assert.ErrorContains(t, err, "invalid JSON")
	})

	t.Run("empty dir", func(t *testing.T) {
		_, err := loadFixtures(t.TempDir())
		assert.ErrorContains(t, err, "no fixture files")
	})

	t.Run("other files ignored", func(t *testing.T) {
		dir := t.TempDir()
		writeFixture(t, dir, "notes.md", []byte("# hi"))
		_, err := loadFixtures(dir)
		assert.Error(t, err)
	})
}

func TestGenerate_TextThroughClient(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck-model.json", []byte(`{"projectName":"Widget"}`))
	ts, _ := startServer(t, dir)

	client, err := gemini.NewClient(context.Background(), gemini.Config{APIKey: "fake", BaseURL: ts.URL})
	require.NoError(t, err)

	text, err := gemini.NewTextModel(client, "deck-model", gemini.DeckSchema()).Generate(context.Background(), "make a deck")
	require.NoError(t, err)
	assert.Equal(t, `{"projectName":"Widget"}`, text)
}

func TestGenerate_ImageThroughClient(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "image-model.png", pngBytes)
	ts, _ := startServer(t, dir)

	client, err := gemini.NewClient(context.Background(), gemini.Config{APIKey: "fake", BaseURL: ts.URL})
	require.NoError(t, err)

	img, err := gemini.NewImageModel(client, "image-model").GenerateImage(context.Background(), "a glowing cube", "16:9")
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)
	assert.Equal(t, pngBytes, img.Data)
}

func TestGenerate_SequenceAndCapture(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck.1.json", []byte(`{"n":1}`))
	writeFixture(t, dir, "deck.json", []byte(`{"n":"last"}`))
	ts, s := startServer(t, dir)

	call := func(prompt string) string {
		body := `{"contents":[{"role":"user","parts":[{"text":"` + prompt + `"}]}]}`
		resp, err := http.Post(ts.URL+"/v1beta/models/deck:generateContent", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var out generateResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		require.Len(t, out.Candidates, 1)
		return out.Candidates[0].Content.Parts[0].Text
	}

	assert.Equal(t, `{"n":1}`, call("first"))
	assert.Equal(t, `{"n":"last"}`, call("second"))
	assert.Equal(t, `{"n":"last"}`, call("third"))
	assert.Equal(t, int64(3), s.calls.Load())

	resp, err := http.Get(ts.URL + "/requests?model=deck&call=2")
	require.NoError(t, err)
	defer resp.Body.Close()

	var captured struct {
		RequestsByModel map[string][]capturedRequest `json:"requests_by_model"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&captured))
	require.Len(t, captured.RequestsByModel["deck"], 1)
	assert.Equal(t, "second", captured.RequestsByModel["deck"][0].Prompt)
}

func TestGenerate_UnknownModel(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck.json", []byte(`{}`))
	ts, _ := startServer(t, dir)

	resp, err := http.Post(ts.URL+"/v1beta/models/other:generateContent", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGenerate_UnsupportedMethod(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck.json", []byte(`{}`))
	ts, _ := startServer(t, dir)

	resp, err := http.Post(ts.URL+"/v1beta/models/deck:countTokens", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthAndStats(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir, "deck.json", []byte(`{}`))
	ts, _ := startServer(t, dir)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var stats map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.EqualValues(t, 0, stats["total_calls"])
}
