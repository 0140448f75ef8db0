package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/snapvocab/snapvocab/internal/config"
	"github.com/snapvocab/snapvocab/internal/kimi"
	"github.com/snapvocab/snapvocab/internal/store"
)

// fakeKimi emulates the service endpoints the pipeline touches. Each
// completion call pops the next scripted stream body.
type fakeKimi struct {
	chatCreates atomic.Int32
	completions atomic.Int32
	streams     []string
	lastChatID  atomic.Value
}

func (f *fakeKimi) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/chat":
			n := f.chatCreates.Add(1)
			json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("chat-%d", n)})

		case r.URL.Path == "/api/pre-sign-url":
			json.NewEncoder(w).Encode(map[string]string{
				"url":         "http://" + r.Host + "/upload/object",
				"object_name": "object",
				"file_id":     "file-1",
			})

		case r.URL.Path == "/upload/object":
			w.WriteHeader(http.StatusOK)

		case r.URL.Path == "/api/file":
			json.NewEncoder(w).Encode(map[string]string{"id": "file-1", "status": "initialized"})

		case strings.HasSuffix(r.URL.Path, "/completion/stream"):
			i := int(f.completions.Add(1)) - 1
			f.lastChatID.Store(strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/chat/"), "/completion/stream"))
			body := ""
			if i < len(f.streams) {
				body = f.streams[i]
			}
			w.Header().Set("Content-Type", "text/event-stream")
			fmt.Fprint(w, body)

		default:
			http.NotFound(w, r)
		}
	}
}

func sseStream(chunks ...string) string {
	var b strings.Builder
	b.WriteString(": ping\n")
	for _, c := range chunks {
		data, _ := json.Marshal(kimi.Event{Event: "cmpl", Text: c})
		fmt.Fprintf(&b, "data: %s\n", data)
	}
	b.WriteString("data: {\"event\":\"done\"}\n")
	return b.String()
}

func newTestPipeline(t *testing.T, fake *fakeKimi) (*Pipeline, *store.BlobStore) {
	t.Helper()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	blobs, err := store.OpenBlobStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open blob store: %v", err)
	}
	t.Cleanup(func() { blobs.Close() })

	client := kimi.NewClient(server.URL, func() string { return "test-token" })
	return NewPipeline(client, blobs, func() config.EnglishLevel { return config.LevelCET4 }), blobs
}

func testImageBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("failed to build test image: %v", err)
	}
	return buf.Bytes()
}

func TestPipelineAnalyze(t *testing.T) {
	fake := &fakeKimi{streams: []string{
		sseStream("```json\n{\"words\":[{\"word\":\"Stool\",", "\"location\":\"0.55, 0.65\"}],",
			"\"sentence\":{\"text\":\"A stool.\",\"translation\":\"凳子。\"}}\n```"),
	}}
	p, blobs := newTestPipeline(t, fake)

	var progressCalls int
	var lastProgress string
	result, err := p.Analyze(context.Background(), testImageBytes(t), func(s string) {
		progressCalls++
		lastProgress = s
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Words) != 1 || result.Words[0].Word != "Stool" {
		t.Errorf("words = %v, want [Stool]", result.Words)
	}
	if fake.chatCreates.Load() != 1 {
		t.Errorf("chat creations = %d, want 1", fake.chatCreates.Load())
	}
	if fake.completions.Load() != 1 {
		t.Errorf("completion calls = %d, want 1", fake.completions.Load())
	}
	if progressCalls != 3 {
		t.Errorf("progress calls = %d, want one per content chunk (3)", progressCalls)
	}
	if !strings.Contains(lastProgress, "translation") {
		t.Error("final progress buffer missing accumulated text")
	}

	// The session id is cached for the next analysis.
	cached, err := blobs.Get("current_chat_id")
	if err != nil {
		t.Fatalf("failed to read cached session: %v", err)
	}
	if string(cached) != "chat-1" {
		t.Errorf("cached session = %q, want chat-1", cached)
	}
}

func TestPipelineRetriesWithFreshSession(t *testing.T) {
	// First stream finishes without content, second succeeds.
	fake := &fakeKimi{streams: []string{
		sseStream(),
		sseStream(`{"words":[],"sentence":{"text":"Empty room.","translation":"空房间。"}}`),
	}}
	p, _ := newTestPipeline(t, fake)

	result, err := p.Analyze(context.Background(), testImageBytes(t), nil)
	if err != nil {
		t.Fatalf("Analyze failed after retry: %v", err)
	}
	if result.Sentence.Text != "Empty room." {
		t.Errorf("sentence = %q, want retry result", result.Sentence.Text)
	}

	// Exactly one retry, on a brand-new session.
	if fake.completions.Load() != 2 {
		t.Errorf("completion calls = %d, want 2", fake.completions.Load())
	}
	if fake.chatCreates.Load() != 2 {
		t.Errorf("chat creations = %d, want 2 (initial plus retry)", fake.chatCreates.Load())
	}
	if got := fake.lastChatID.Load(); got != "chat-2" {
		t.Errorf("retry chat = %v, want chat-2", got)
	}
}

func TestPipelineFailsAfterOneRetry(t *testing.T) {
	fake := &fakeKimi{streams: []string{sseStream(), sseStream()}}
	p, _ := newTestPipeline(t, fake)

	_, err := p.Analyze(context.Background(), testImageBytes(t), nil)
	if err == nil {
		t.Fatal("Analyze succeeded on two empty streams")
	}
	if fake.completions.Load() != 2 {
		t.Errorf("completion calls = %d, want exactly 2", fake.completions.Load())
	}
}

func TestPipelineReusesCachedSession(t *testing.T) {
	fake := &fakeKimi{streams: []string{
		sseStream(`{"words":[],"sentence":{"text":"One.","translation":"一。"}}`),
		sseStream(`{"words":[],"sentence":{"text":"Two.","translation":"二。"}}`),
	}}
	p, _ := newTestPipeline(t, fake)

	img := testImageBytes(t)
	if _, err := p.Analyze(context.Background(), img, nil); err != nil {
		t.Fatalf("first Analyze failed: %v", err)
	}
	if _, err := p.Analyze(context.Background(), img, nil); err != nil {
		t.Fatalf("second Analyze failed: %v", err)
	}

	if fake.chatCreates.Load() != 1 {
		t.Errorf("chat creations = %d, want 1 (session reused)", fake.chatCreates.Load())
	}
}
