package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"google.golang.org/genai"

	"github.com/bobmcallan/finq/internal/models"
)

func TestExtractTextFromResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{Text: "Apple filed "}, {Text: ""}, {Text: "a 10-K."}},
			},
		}},
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		t.Fatalf("extractTextFromResponse failed: %v", err)
	}
	if text != "Apple filed a 10-K." {
		t.Errorf("text = %q", text)
	}
}

func TestExtractTextFromResponse_NoCandidates(t *testing.T) {
	for name, resp := range map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"nil content":   {Candidates: []*genai.Candidate{{}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := extractTextFromResponse(resp)
			if !errors.Is(err, models.ErrSourceUnavailable) {
				t.Errorf("expected ErrSourceUnavailable, got %v", err)
			}
		})
	}
}

func TestSummarize_SendsPrompt(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"summary text"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL), WithModel("test-model"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	text, err := client.Summarize(context.Background(), "Summarize AAPL filings")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if text != "summary text" {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(gotPath, "test-model:generateContent") {
		t.Errorf("path = %s", gotPath)
	}
	if !strings.Contains(gotBody, "Summarize AAPL filings") {
		t.Errorf("prompt not sent, body = %s", gotBody)
	}
}

func TestSummarize_EmptyPrompt(t *testing.T) {
	client, err := NewClient(context.Background(), "test-key", WithBaseURL("http://127.0.0.1:1"))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.Summarize(context.Background(), "   "); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSummarize_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := client.Summarize(context.Background(), "hello"); !errors.Is(err, models.ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestTruncatePrompt_RuneBoundary(t *testing.T) {
	got := truncatePrompt("héllo wörld", 4)
	if got != "héll" {
		t.Errorf("truncatePrompt = %q, want %q", got, "héll")
	}
	if !utf8.ValidString(truncatePrompt("ééé", 2)) {
		t.Error("truncated prompt is not valid UTF-8")
	}
	if got := truncatePrompt("abc", 10); got != "abc" {
		t.Errorf("short prompt changed: %q", got)
	}
}

func TestSummarize_MaxPromptCountsCharacters(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), "test-key", WithBaseURL(srv.URL), WithMaxPrompt(3))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	if _, err := client.Summarize(context.Background(), "ééééé"); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if !utf8.ValidString(gotBody) {
		t.Fatalf("request body is not valid UTF-8: %q", gotBody)
	}
	if !strings.Contains(gotBody, `"ééé"`) {
		t.Errorf("expected three-character prompt, body = %s", gotBody)
	}
}
