package ollama

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/thumbnailer/pkg/client"
)

func newServer(t *testing.T, answer string, seen *api.ChatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			if err := json.NewDecoder(r.Body).Decode(seen); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(api.ChatResponse{
			Model:   "test",
			Message: api.Message{Role: "assistant", Content: answer},
			Done:    true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewClientRejectsBadURL(t *testing.T) {
	if _, err := NewClient("localhost", nil, nil); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
	if _, err := NewClient("", nil, nil); err != nil {
		t.Fatalf("default URL: %v", err)
	}
}

func TestAnalyzeImage(t *testing.T) {
	var seen api.ChatRequest
	srv := newServer(t, `{"primary":{"label":"cat","confidence":0.8,"cx":0.3,"cy":0.6}}`, &seen)

	c, err := NewClient(srv.URL+"/api/chat", srv.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	img := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	res, err := c.AnalyzeImage(context.Background(), client.Request{Model: "minicpm-v4.5", Prompt: "where?", ImageB64: img})
	if err != nil {
		t.Fatal(err)
	}
	if res.Primary.Label != "cat" || res.Primary.Cx != 0.3 || res.Primary.Cy != 0.6 {
		t.Fatalf("unexpected result %+v", res.Primary)
	}
	if seen.Model != "minicpm-v4.5" || len(seen.Messages) != 1 || len(seen.Messages[0].Images) != 1 {
		t.Fatalf("unexpected request %+v", seen)
	}
	if seen.Options["num_ctx"] == nil {
		t.Error("expected tuned options for minicpm")
	}
}

func TestSimpleQuery(t *testing.T) {
	srv := newServer(t, "a cat on a sofa", nil)
	c, err := NewClient(srv.URL, srv.Client(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.SimpleQuery(context.Background(), client.Request{Model: "llava", ImageB64: ""})
	if err != nil {
		t.Fatal(err)
	}
	if got != "a cat on a sofa" {
		t.Fatalf("got %q", got)
	}
}

func TestAnalyzeImageBadBase64(t *testing.T) {
	c, _ := NewClient(DefaultURL, nil, nil)
	if _, err := c.AnalyzeImage(context.Background(), client.Request{ImageB64: "%%%"}); err == nil {
		t.Fatal("expected base64 error")
	}
}
