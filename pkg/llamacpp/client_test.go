package llamacpp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/menta2k/thumbnailer/pkg/client"
)

func TestAnalyzeImage(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != chatEndpoint {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		_, _ = w.Write([]byte(`{"model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"primary\":{\"label\":\"car\",\"cx\":0.7,\"cy\":0.5}}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	res, err := c.AnalyzeImage(context.Background(), client.Request{Model: "m", Prompt: "p", ImageB64: "AAAA", MIME: "image/png"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.Label != "car" || res.Primary.Cx != 0.7 {
		t.Fatalf("unexpected %+v", res.Primary)
	}

	parts, ok := got.Messages[0].Content.([]any)
	if !ok || len(parts) != 2 {
		t.Fatalf("expected text and image parts, got %#v", got.Messages[0].Content)
	}
	img := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(img, "data:image/png;base64,") {
		t.Errorf("image url = %q", img)
	}
	if got.MaxTokens != 4096 {
		t.Errorf("max tokens = %d", got.MaxTokens)
	}
}

func TestSimpleQueryContentParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"a bridge"}]}}]}`))
	}))
	defer srv.Close()

	text, err := NewClient(srv.URL, nil).SimpleQuery(context.Background(), client.Request{Prompt: "what?"})
	if err != nil {
		t.Fatal(err)
	}
	if text != "a bridge" {
		t.Fatalf("got %q", text)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"status", http.StatusInternalServerError, "boom"},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"empty text", http.StatusOK, `{"choices":[{"message":{"content":""}}]}`},
		{"not json", http.StatusOK, `<html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()
			if _, err := NewClient(srv.URL, nil).AnalyzeImage(context.Background(), client.Request{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
