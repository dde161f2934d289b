package cart

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_Clear(t *testing.T) {
	var gotUser string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/cart/clear" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var payload struct {
			UserID string `json:"userId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		gotUser = payload.UserID
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if err := client.Clear(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotUser != "user-1" {
		t.Fatalf("unexpected user id: %s", gotUser)
	}
}

func TestHTTPClient_ClearFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if err := client.Clear(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error on 500 response")
	}

	unreachable := NewHTTPClient("http://127.0.0.1:1")
	if err := unreachable.Clear(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error on unreachable service")
	}
}

func TestMockService(t *testing.T) {
	mock := NewMockService()

	if err := mock.Clear(context.Background(), "user-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.ClearCalls != 1 || mock.LastOwner != "user-1" {
		t.Fatalf("unexpected mock state: calls=%d owner=%s", mock.ClearCalls, mock.LastOwner)
	}

	mock.ClearErr = errors.New("cart down")
	if err := mock.Clear(context.Background(), "user-2"); err == nil {
		t.Fatal("expected configured error")
	}
}
