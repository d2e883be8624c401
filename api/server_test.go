package api

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/events"
	"github.com/c360studio/repodeck/llm/testutil"
	"github.com/c360studio/repodeck/metrics"
	"github.com/c360studio/repodeck/presentation"
	"github.com/c360studio/repodeck/source"
	"github.com/c360studio/repodeck/visual"
	"github.com/c360studio/repodeck/workflow"
)

var png = deck.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}}

type stubFetcher struct{ err error }

func (f stubFetcher) Fetch(_ context.Context, ref string) (*source.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &source.Document{Name: "widget", Content: "# Widget", Origin: ref}, nil
}

type stubSynth struct{ gate chan struct{} }

func (s stubSynth) Generate(ctx context.Context, _, _ string) (*deck.Deck, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d := &deck.Deck{
		ProjectName: "Widget",
		Tagline:     "Dashboards from spreadsheets",
		Slides: []deck.Slide{
			{Kind: deck.KindTitle, Title: "Widget", Bullets: []string{"Fast"}, SpeakerNotes: "Hi", VisualPrompt: "aurora"},
			{Kind: deck.KindProblem, Title: "Pain", Bullets: []string{"Slow"}, SpeakerNotes: "Ouch", VisualPrompt: "maze"},
		},
	}
	d.AssignIDs()
	return d, nil
}

type harness struct {
	server   *Server
	http     *httptest.Server
	sessions *Sessions
	images   *testutil.MockImageGenerator
}

func newHarness(t *testing.T, fetcher source.Fetcher, synth workflow.DeckSynthesizer, opts ...Option) *harness {
	t.Helper()
	gen := &testutil.MockImageGenerator{Image: png}
	vis := visual.New(gen)
	sessions := NewSessions(context.Background(), func(string) *workflow.Analyzer {
		return workflow.NewAnalyzer(fetcher, synth, vis,
			workflow.WithAnalyzeDelay(0),
			workflow.WithPresentationOptions(presentation.WithEagerTitleImage(false)))
	})
	srv := NewServer(sessions, opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &harness{server: srv, http: ts, sessions: sessions, images: gen}
}

func (h *harness) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, h.http.URL+path, r)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (h *harness) create(t *testing.T) string {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[CreateSessionResponse](t, resp).ID
}

// analyze submits url and waits for the background analysis to finish.
func (h *harness) analyze(t *testing.T, id, url string) {
	t.Helper()
	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/analyze", AnalyzeRequest{URL: url})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	sess, err := h.sessions.Get(id)
	require.NoError(t, err)
	sess.Analyzer.Wait()
}

func TestHealth(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	resp := h.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSession_Lifecycle(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)

	got := decode[SessionResponse](t, h.do(t, http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, workflow.StatusIdle, got.Status)

	h.analyze(t, id, "https://github.com/acme/widget")

	got = decode[SessionResponse](t, h.do(t, http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, workflow.StatusCompleted, got.Status)
	require.NotNil(t, got.Deck)
	assert.Equal(t, "Widget", got.Deck.ProjectName)
	assert.Equal(t, "slide-1", got.Deck.Slides[1].ID)

	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/close", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	got = decode[SessionResponse](t, resp)
	assert.Equal(t, workflow.StatusIdle, got.Status)
	assert.Nil(t, got.Deck)

	// closing twice is a conflict
	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPost, "/api/sessions/"+id+"/close", nil).StatusCode)

	assert.Equal(t, http.StatusNoContent, h.do(t, http.MethodDelete, "/api/sessions/"+id, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sessions/"+id, nil).StatusCode)
}

func TestAnalyze_NotFoundMessage(t *testing.T) {
	h := newHarness(t, stubFetcher{err: source.ErrNotFound}, stubSynth{})
	id := h.create(t)
	h.analyze(t, id, "https://github.com/acme/missing")

	got := decode[SessionResponse](t, h.do(t, http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, workflow.StatusError, got.Status)
	assert.Equal(t, source.NotFoundMessage, got.Message)
}

func TestAnalyze_BadRequests(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodPost, "/api/sessions/"+id+"/analyze", AnalyzeRequest{URL: "  "}).StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/api/sessions/nope/analyze", AnalyzeRequest{URL: "x"}).StatusCode)
}

func TestAnalyze_BusyConflict(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, stubFetcher{}, stubSynth{gate: gate})
	id := h.create(t)

	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/analyze", AnalyzeRequest{URL: "https://github.com/acme/widget"})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = h.do(t, http.MethodPost, "/api/sessions/"+id+"/analyze", AnalyzeRequest{URL: "https://github.com/acme/widget"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	close(gate)
	sess, err := h.sessions.Get(id)
	require.NoError(t, err)
	sess.Analyzer.Wait()
}

func TestSlideImage(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)

	// no deck yet
	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodPost, "/api/sessions/"+id+"/slides/slide-0/image", nil).StatusCode)

	h.analyze(t, id, "https://github.com/acme/widget")

	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodGet, "/api/sessions/"+id+"/slides/slide-1/image", nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, h.do(t, http.MethodPost, "/api/sessions/"+id+"/slides/slide-9/image", nil).StatusCode)

	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/slides/slide-1/image?wait=true", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, png.Data, body)

	// served from the cache
	resp = h.do(t, http.MethodGet, "/api/sessions/"+id+"/slides/slide-1/image", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/sessions/"+id+"/slides/slide-1/image", nil).StatusCode)
	assert.Equal(t, 1, h.images.Calls())
}

func TestSlideImage_BackgroundRequest(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)
	h.analyze(t, id, "https://github.com/acme/widget")

	resp := h.do(t, http.MethodPost, "/api/sessions/"+id+"/slides/slide-0/image", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Eventually(t, func() bool {
		return h.do(t, http.MethodGet, "/api/sessions/"+id+"/slides/slide-0/image", nil).StatusCode == http.StatusOK
	}, 5*time.Second, 10*time.Millisecond)
}

func TestExport(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)

	assert.Equal(t, http.StatusConflict, h.do(t, http.MethodGet, "/api/sessions/"+id+"/export", nil).StatusCode)

	h.analyze(t, id, "https://github.com/acme/widget")

	resp := h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=pptx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="Widget_Pitch_Deck.pptx"`)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "ppt/slides/slide2.xml")

	resp = h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=md", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	md, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(md), "# Widget"))

	assert.Equal(t, http.StatusBadRequest, h.do(t, http.MethodGet, "/api/sessions/"+id+"/export?format=pdf", nil).StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.DeckGenerated(metrics.ResultSuccess)

	h := newHarness(t, stubFetcher{}, stubSynth{}, WithGatherer(reg))
	resp := h.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "repodeck_decks_generated_total")
}

func TestEvents_WebSocket(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	id := h.create(t)

	wsURL := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/api/sessions/" + id + "/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() events.StatusEvent {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev events.StatusEvent
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	first := read()
	assert.Equal(t, workflow.StatusIdle, first.To)

	require.Eventually(t, func() bool { return h.server.Hub().Subscribers(id) == 1 }, time.Second, 5*time.Millisecond)
	h.analyze(t, id, "https://github.com/acme/widget")

	var seen []workflow.Status
	for range 4 {
		ev := read()
		assert.Equal(t, id, ev.Session)
		seen = append(seen, ev.To)
	}
	assert.Equal(t, []workflow.Status{
		workflow.StatusFetchingRepo,
		workflow.StatusAnalyzing,
		workflow.StatusGeneratingDeck,
		workflow.StatusCompleted,
	}, seen)
}

func TestEvents_UnknownSession(t *testing.T) {
	h := newHarness(t, stubFetcher{}, stubSynth{})
	wsURL := "ws" + strings.TrimPrefix(h.http.URL, "http") + "/api/sessions/nope/events"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEvents_ForwardedToPublisher(t *testing.T) {
	hub := events.NewHub()
	h := newHarness(t, stubFetcher{}, stubSynth{}, WithPublisher(hub))
	id := h.create(t)

	ch, cancel := hub.Subscribe(id)
	defer cancel()
	h.analyze(t, id, "https://github.com/acme/widget")

	ev := <-ch
	assert.Equal(t, workflow.StatusFetchingRepo, ev.To)
}
