// Package main implements a fake Gemini server for offline runs and e2e
// tests. It answers generateContent calls from fixture files, routing by the
// model named in the request path, so repodeck can be exercised without an
// API key.
//
// Usage:
//
//	mock-gemini -fixtures /path/to/fixtures -port 8089
//	repodeck generate ./project   # with model.base_url: http://localhost:8089
//
// Fixture files are named by model. A .json or .txt file is returned as a
// text part ("gemini-2.5-flash.json" answers model "gemini-2.5-flash"). A
// .png or .jpg file is returned as an inline image part.
//
// Sequential fixtures: numbered files ("model.1.json", "model.2.png") are
// served in order for the Nth call to that model. After they run out the
// base file is repeated.
package main

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// --- Gemini wire types ---

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content      `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
	Index        int     `json:"index"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type generateResponse struct {
	Candidates    []candidate   `json:"candidates"`
	UsageMetadata usageMetadata `json:"usageMetadata"`
	ModelVersion  string        `json:"modelVersion"`
}

// --- Fixtures ---

// fixture is one canned reply: either text or an image.
type fixture struct {
	Text     string
	MIMEType string
	Data     []byte
}

func (f fixture) part() part {
	if f.MIMEType != "" {
		return part{InlineData: &inlineData{
			MIMEType: f.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(f.Data),
		}}
	}
	return part{Text: f.Text}
}

func (f fixture) size() int {
	if f.MIMEType != "" {
		return len(f.Data)
	}
	return len(f.Text)
}

var fixtureTypes = map[string]string{
	".json": "",
	".txt":  "",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
}

// numberedFileRe matches files like "gemini-2.5-flash.1.json".
var numberedFileRe = regexp.MustCompile(`^(.+)\.(\d+)$`)

// loadFixtures reads fixture files from dir and returns model → reply sequence.
//
// Numbered files come first in numeric order, then the base file as the
// repeating fallback.
func loadFixtures(dir string) (map[string][]fixture, error) {
	baseFiles := make(map[string]fixture)
	numberedFiles := make(map[string]map[int]fixture)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		mimeType, ok := fixtureTypes[ext]
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		var fx fixture
		if mimeType != "" {
			fx = fixture{MIMEType: mimeType, Data: data}
		} else {
			if ext == ".json" && !json.Valid(data) {
				return fmt.Errorf("invalid JSON in %s", path)
			}
			fx = fixture{Text: string(data)}
		}

		stem := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		if matches := numberedFileRe.FindStringSubmatch(stem); matches != nil {
			model := matches[1]
			index, _ := strconv.Atoi(matches[2])
			if numberedFiles[model] == nil {
				numberedFiles[model] = make(map[int]fixture)
			}
			numberedFiles[model][index] = fx
			return nil
		}

		baseFiles[stem] = fx
		return nil
	})
	if err != nil {
		return nil, err
	}

	fixtures := make(map[string][]fixture)
	allModels := make(map[string]bool)
	for m := range baseFiles {
		allModels[m] = true
	}
	for m := range numberedFiles {
		allModels[m] = true
	}

	for model := range allModels {
		var seq []fixture
		if numbered, ok := numberedFiles[model]; ok {
			indices := make([]int, 0, len(numbered))
			for idx := range numbered {
				indices = append(indices, idx)
			}
			sort.Ints(indices)
			for _, idx := range indices {
				seq = append(seq, numbered[idx])
			}
		}
		if base, ok := baseFiles[model]; ok {
			seq = append(seq, base)
		}
		if len(seq) > 0 {
			fixtures[model] = seq
		}
	}

	if len(fixtures) == 0 {
		return nil, fmt.Errorf("no fixture files found in %s", dir)
	}
	return fixtures, nil
}

// --- Server ---

// capturedRequest stores the prompt of an incoming call for test verification.
type capturedRequest struct {
	Model     string `json:"model"`
	Prompt    string `json:"prompt"`
	CallIndex int    `json:"call_index"` // 1-indexed per model
	Timestamp int64  `json:"timestamp"`
}

type server struct {
	fixtures map[string][]fixture
	logger   *slog.Logger
	calls    atomic.Int64

	modelCalls   map[string]*atomic.Int64
	modelCallsMu sync.Mutex

	modelRequests   map[string][]capturedRequest
	modelRequestsMu sync.Mutex
}

func newServer(fixtures map[string][]fixture, logger *slog.Logger) *server {
	return &server{
		fixtures:      fixtures,
		logger:        logger,
		modelCalls:    make(map[string]*atomic.Int64),
		modelRequests: make(map[string][]capturedRequest),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /v1beta/models/{call}", s.handleGenerate)
	mux.HandleFunc("GET /stats", s.handleStats)
	mux.HandleFunc("GET /requests", s.handleRequests)
	return mux
}

func (s *server) captureRequest(model string, req generateRequest, callIndex int) {
	var prompt strings.Builder
	for _, c := range req.Contents {
		for _, p := range c.Parts {
			prompt.WriteString(p.Text)
		}
	}

	s.modelRequestsMu.Lock()
	defer s.modelRequestsMu.Unlock()
	s.modelRequests[model] = append(s.modelRequests[model], capturedRequest{
		Model:     model,
		Prompt:    prompt.String(),
		CallIndex: callIndex,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (s *server) modelCounter(model string) *atomic.Int64 {
	s.modelCallsMu.Lock()
	defer s.modelCallsMu.Unlock()
	if c, ok := s.modelCalls[model]; ok {
		return c
	}
	c := &atomic.Int64{}
	s.modelCalls[model] = c
	return c
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	model, method, ok := strings.Cut(r.PathValue("call"), ":")
	if !ok || method != "generateContent" {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unsupported method %q", method))
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	callNum := s.calls.Add(1)
	seq, ok := s.fixtures[model]
	if !ok {
		s.logger.Warn("No fixture for model", "call", callNum, "model", model)
		writeError(w, http.StatusNotFound, fmt.Sprintf("no fixture for model %q", model))
		return
	}

	callIndex := int(s.modelCounter(model).Add(1) - 1)
	s.captureRequest(model, req, callIndex+1)

	fx := seq[min(callIndex, len(seq)-1)]
	s.logger.Info("Serving fixture",
		"call", callNum, "model", model, "index", callIndex+1, "of", len(seq), "bytes", fx.size())

	writeJSON(w, http.StatusOK, generateResponse{
		Candidates: []candidate{{
			Content:      content{Role: "model", Parts: []part{fx.part()}},
			FinishReason: "STOP",
		}},
		UsageMetadata: usageMetadata{
			PromptTokenCount:     1,
			CandidatesTokenCount: fx.size() / 4,
			TotalTokenCount:      1 + fx.size()/4,
		},
		ModelVersion: model,
	})
}

// handleStats returns total and per-model call counts.
func (s *server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.modelCallsMu.Lock()
	callsByModel := make(map[string]int64, len(s.modelCalls))
	for model, counter := range s.modelCalls {
		callsByModel[model] = counter.Load()
	}
	s.modelCallsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"total_calls":    s.calls.Load(),
		"calls_by_model": callsByModel,
	})
}

// handleRequests returns captured prompts, optionally filtered by the
// "model" and "call" (1-indexed) query parameters.
func (s *server) handleRequests(w http.ResponseWriter, r *http.Request) {
	modelFilter := r.URL.Query().Get("model")
	callFilter, _ := strconv.Atoi(r.URL.Query().Get("call"))

	s.modelRequestsMu.Lock()
	result := make(map[string][]capturedRequest)
	for model, reqs := range s.modelRequests {
		if modelFilter != "" && model != modelFilter {
			continue
		}
		for _, req := range reqs {
			if callFilter == 0 || req.CallIndex == callFilter {
				result[model] = append(result[model], req)
			}
		}
	}
	s.modelRequestsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"requests_by_model": result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError uses the Gemini error envelope so the SDK surfaces the message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": msg,
			"status":  http.StatusText(status),
		},
	})
}

func main() {
	fixtureDir := flag.String("fixtures", "", "directory containing fixture files")
	port := flag.Int("port", 8089, "port to listen on")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if envDir := os.Getenv("MOCK_GEMINI_FIXTURES"); envDir != "" && *fixtureDir == "" {
		*fixtureDir = envDir
	}
	if *fixtureDir == "" {
		*fixtureDir = "/fixtures"
	}

	fixtures, err := loadFixtures(*fixtureDir)
	if err != nil {
		logger.Error("Failed to load fixtures", "dir", *fixtureDir, "error", err)
		os.Exit(1)
	}
	for model, seq := range fixtures {
		logger.Info("Loaded fixtures", "model", model, "count", len(seq))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", *port),
		Handler:           newServer(fixtures, logger).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Mock Gemini server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
