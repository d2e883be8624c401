package presentation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/llm/testutil"
	"github.com/c360studio/repodeck/visual"
)

var png = deck.Image{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}

func testDeck() *deck.Deck {
	d := &deck.Deck{
		ProjectName: "Widget",
		Tagline:     "Dashboards from spreadsheets",
		Slides: []deck.Slide{
			{Kind: deck.KindTitle, Title: "Widget", Bullets: []string{"Fast"}, VisualPrompt: "aurora"},
			{Kind: deck.KindProblem, Title: "Pain", Bullets: []string{"Slow"}, VisualPrompt: "maze"},
			{Kind: deck.KindSolution, Title: "Fix", Bullets: []string{"Quick"}, VisualPrompt: "bridge"},
		},
	}
	d.AssignIDs()
	return d
}

// gated returns an image generator that blocks until its gate closes and
// announces each call on Started.
func gated() *testutil.MockImageGenerator {
	return &testutil.MockImageGenerator{
		Image:   png,
		Gate:    make(chan struct{}),
		Started: make(chan string, 8),
	}
}

func newPresentation(gen visual.ImageGenerator, opts ...Option) *Presentation {
	return New(testDeck(), visual.New(gen, visual.WithTimeout(0)), opts...)
}

func waitStarted(t *testing.T, gen *testutil.MockImageGenerator) {
	t.Helper()
	select {
	case <-gen.Started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not start")
	}
}

func TestEnsureImage_GeneratesAndCaches(t *testing.T) {
	gen := &testutil.MockImageGenerator{Image: png}
	p := newPresentation(gen)

	img, ok := p.EnsureImage(context.Background(), "slide-1", "maze")
	require.True(t, ok)
	assert.Equal(t, png, img)

	img, ok = p.EnsureImage(context.Background(), "slide-1", "maze")
	require.True(t, ok)
	assert.Equal(t, png, img)
	assert.Equal(t, 1, gen.Calls())

	cached, ok := p.Image("slide-1")
	assert.True(t, ok)
	assert.Equal(t, png, cached)
	assert.Len(t, p.Images(), 1)
}

func TestEnsureImage_DuplicateInFlightIsNoop(t *testing.T) {
	gen := gated()
	p := newPresentation(gen)

	first := make(chan bool, 1)
	go func() {
		_, ok := p.EnsureImage(context.Background(), "slide-1", "maze")
		first <- ok
	}()
	waitStarted(t, gen)

	assert.True(t, p.Generating("slide-1"))
	img, ok := p.EnsureImage(context.Background(), "slide-1", "maze")
	assert.False(t, ok)
	assert.True(t, img.IsZero())

	close(gen.Gate)
	assert.True(t, <-first)
	assert.False(t, p.Generating("slide-1"))
	assert.Equal(t, 1, gen.Calls())
}

func TestEnsureImage_ConcurrentDuplicates(t *testing.T) {
	gen := gated()
	p := newPresentation(gen)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.EnsureImage(context.Background(), "slide-2", "bridge")
		}()
	}
	waitStarted(t, gen)
	close(gen.Gate)
	wg.Wait()

	assert.Equal(t, 1, gen.Calls())
	_, ok := p.Image("slide-2")
	assert.True(t, ok)
}

func TestEnsureImage_FailureIsNotCached(t *testing.T) {
	gen := &testutil.MockImageGenerator{Err: errors.New("blocked")}
	p := newPresentation(gen)

	_, ok := p.EnsureImage(context.Background(), "slide-0", "aurora")
	assert.False(t, ok)
	_, ok = p.Image("slide-0")
	assert.False(t, ok)
	assert.False(t, p.Generating("slide-0"))

	_, ok = p.EnsureImage(context.Background(), "slide-0", "aurora")
	assert.False(t, ok)
	assert.Equal(t, 2, gen.Calls())
}

func TestAwaitImage_JoinsInFlightGeneration(t *testing.T) {
	gen := gated()
	p := newPresentation(gen)

	go p.EnsureImage(context.Background(), "slide-1", "maze")
	waitStarted(t, gen)

	awaited := make(chan deck.Image, 1)
	go func() {
		img, _ := p.AwaitImage(context.Background(), "slide-1", "maze")
		awaited <- img
	}()

	close(gen.Gate)
	select {
	case img := <-awaited:
		assert.Equal(t, png, img)
	case <-time.After(5 * time.Second):
		t.Fatal("AwaitImage did not return")
	}
	assert.Equal(t, 1, gen.Calls())
}

func TestAwaitImage_ContextEnds(t *testing.T) {
	gen := gated()
	defer close(gen.Gate)
	p := newPresentation(gen)

	go p.EnsureImage(context.Background(), "slide-1", "maze")
	waitStarted(t, gen)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, ok := p.AwaitImage(ctx, "slide-1", "maze")
	assert.False(t, ok)
}

func TestAwaitImage_GeneratesWhenIdle(t *testing.T) {
	gen := &testutil.MockImageGenerator{Image: png}
	p := newPresentation(gen)

	img, ok := p.AwaitImage(context.Background(), "slide-2", "bridge")
	require.True(t, ok)
	assert.Equal(t, png, img)
	assert.Equal(t, 1, gen.Calls())
}

func TestStart_RequestsTitleImage(t *testing.T) {
	gen := &testutil.MockImageGenerator{Image: png}

	var mu sync.Mutex
	var observed []string
	p := newPresentation(gen, WithObserver(func(id string, _ deck.Image) {
		mu.Lock()
		observed = append(observed, id)
		mu.Unlock()
	}))

	p.Start()
	p.Wait()

	_, ok := p.Image("slide-0")
	assert.True(t, ok)
	assert.Equal(t, []string{visual.StylePrompt("aurora")}, gen.Prompts())
	assert.Equal(t, []string{"slide-0"}, observed)
}

func TestStart_Disabled(t *testing.T) {
	gen := &testutil.MockImageGenerator{Image: png}
	p := newPresentation(gen, WithEagerTitleImage(false))

	p.Start()
	p.Wait()
	assert.Equal(t, 0, gen.Calls())
}

func TestClose_DropsLateResults(t *testing.T) {
	gen := gated()
	shared := visual.New(gen, visual.WithTimeout(0))
	old := New(testDeck(), shared)

	result := make(chan bool, 1)
	go func() {
		_, ok := old.EnsureImage(context.Background(), "slide-0", "aurora")
		result <- ok
	}()
	waitStarted(t, gen)

	old.Close()
	fresh := New(testDeck(), shared)

	close(gen.Gate)
	assert.False(t, <-result)

	assert.Empty(t, old.Images())
	assert.Empty(t, fresh.Images())
	_, ok := fresh.Image("slide-0")
	assert.False(t, ok)

	_, ok = old.EnsureImage(context.Background(), "slide-0", "aurora")
	assert.False(t, ok)
	assert.True(t, old.Closed())
	assert.False(t, fresh.Closed())
}
