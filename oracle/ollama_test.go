// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

func newOllamaServer(t *testing.T, content string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.Model != "test-model" || req.Stream || len(req.Messages) != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if !strings.Contains(req.Messages[1].Content, `"Hb": ""`) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: content}}},
		})
	}))
	t.Cleanup(server.Close)

	return server
}

func TestOllamaNormalize(t *testing.T) {
	t.Parallel()

	server := newOllamaServer(t, "```json\n{\"Hb\": \"Hemoglobin\"}\n```")

	o, err := NewOllama(server.URL+"/", "test-model")
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	got, err := o.Normalize(context.Background(), []string{"Hb"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(got, map[string]string{"Hb": "Hemoglobin"}) {
		t.Fatalf("unexpected reply %v", got)
	}
}

func TestOllamaMalformedReply(t *testing.T) {
	t.Parallel()

	server := newOllamaServer(t, "I could not do that.")

	o, err := NewOllama(server.URL, "test-model")
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	if _, err := o.Normalize(context.Background(), []string{"Hb"}); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	o, err := NewOllama(server.URL, "test-model")
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	_, err = o.Normalize(context.Background(), []string{"Hb"})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestOllamaRespectsDeadline(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	o, err := NewOllama(server.URL, "test-model")
	if err != nil {
		t.Fatalf("NewOllama failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := o.Normalize(ctx, []string{"Hb"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewOllamaRequiresConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewOllama("", "model"); err == nil {
		t.Fatal("expected error for missing URL")
	}

	if _, err := NewOllama("http://localhost:11434", ""); err == nil {
		t.Fatal("expected error for missing model")
	}
}
