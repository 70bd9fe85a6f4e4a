package imagestore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPUploaderReturnsHostedURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Filename != "phone.jpg" {
			t.Errorf("filename = %q", header.Filename)
		}
		if r.FormValue("key") != "test-key" {
			t.Errorf("api key = %q", r.FormValue("key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"url":"https://img.example.com/phone.jpg"}}`))
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL, "test-key")
	url, err := uploader.Upload(context.Background(), "phone.jpg", strings.NewReader("fake-image-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://img.example.com/phone.jpg" {
		t.Fatalf("url = %q", url)
	}
}

func TestHTTPUploaderWrapsHostFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	uploader := NewHTTPUploader(server.URL, "")
	_, err := uploader.Upload(context.Background(), "phone.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrUpload) {
		t.Fatalf("expected ErrUpload, got %v", err)
	}
}

func TestDisabledUploader(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "phone.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
