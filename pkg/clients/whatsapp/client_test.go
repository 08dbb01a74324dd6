package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mamadbah2/avicola/internal/config"
)

func TestSendText(t *testing.T) {
	var got textMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v20.0/123/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %s", r.Header.Get("Authorization"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{BaseURL: srv.URL + "/", APIVersion: "v20.0", AccessToken: "secret", PhoneNumberID: "123"})
	id, err := client.SendText(context.Background(), "51999", "Pedido vencido")
	if err != nil {
		t.Fatal(err)
	}
	if id != "wamid.1" {
		t.Errorf("id = %s", id)
	}
	if got.To != "51999" || got.Text.Body != "Pedido vencido" || got.MessagingProduct != "whatsapp" {
		t.Errorf("payload = %+v", got)
	}
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":190,"type":"OAuthException","message":"expired"}}`))
	}))
	defer srv.Close()

	client := NewClient(config.WhatsAppConfig{BaseURL: srv.URL, APIVersion: "v20.0", AccessToken: "x", PhoneNumberID: "1"})
	_, err := client.SendText(context.Background(), "1", "hi")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != 190 || apiErr.Message != "expired" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}
