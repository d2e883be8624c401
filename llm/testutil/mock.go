// Package testutil provides thread-safe fakes for the generative model
// boundaries: chat completion, text generation and image generation.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/repodeck/deck"
	"github.com/c360studio/repodeck/llm"
)

// MockLLMClient fakes llm.Client.Complete. It captures the last request and
// context and returns configured responses in sequence.
//
//	mock := &MockLLMClient{
//	    Responses: []*llm.Response{{Content: `{"projectName":"Widget"}`}},
//	}
type MockLLMClient struct {
	mu              sync.Mutex
	capturedContext context.Context
	capturedRequest llm.Request
	Responses       []*llm.Response
	Err             error // takes precedence over Responses
	callCount       int
	responseIndex   int
}

// Complete returns the next configured response, or Err if set.
func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capturedContext = ctx
	m.capturedRequest = req
	m.callCount++

	if m.Err != nil {
		return nil, m.Err
	}
	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}
	return &llm.Response{Model: "test-model"}, nil
}

// GetCapturedContext returns the last context passed to Complete.
func (m *MockLLMClient) GetCapturedContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedContext
}

// GetCapturedRequest returns the last request passed to Complete.
func (m *MockLLMClient) GetCapturedRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedRequest
}

// GetCallCount returns the number of Complete calls.
func (m *MockLLMClient) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MockTextGenerator fakes a schema-constrained text model.
type MockTextGenerator struct {
	mu      sync.Mutex
	Text    string
	Err     error
	prompts []string
}

// Generate records prompt and returns Text or Err.
func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.Text, nil
}

// Prompts returns every prompt received, in order.
func (m *MockTextGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockImageGenerator fakes an image model. When Gate is non-nil every call
// blocks until Gate is closed or the context ends, which lets tests hold a
// generation in flight.
type MockImageGenerator struct {
	mu      sync.Mutex
	Image   deck.Image
	Err     error
	Gate    chan struct{}
	Started chan string // receives each prompt as a call begins, if non-nil
	prompts []string
	ratios  []string
}

// GenerateImage records the call and returns Image or Err.
func (m *MockImageGenerator) GenerateImage(ctx context.Context, prompt, aspectRatio string) (deck.Image, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.ratios = append(m.ratios, aspectRatio)
	gate, started := m.Gate, m.Started
	img, err := m.Image, m.Err
	m.mu.Unlock()

	if started != nil {
		started <- prompt
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return deck.Image{}, ctx.Err()
		}
	}
	return img, err
}

// Calls returns the number of GenerateImage calls.
func (m *MockImageGenerator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// Prompts returns every prompt received, in order.
func (m *MockImageGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// AspectRatios returns every aspect ratio received, in order.
func (m *MockImageGenerator) AspectRatios() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ratios...)
}
