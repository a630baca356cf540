// Platform Console Studio Screen - DOOH Screen Discovery and Campaign Assistant
// Copyright 2026 Fazal Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fazal-lab/Platform-Console-Studio-Screen

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// screenPayload is a representative discover response fragment. Repeated
// field names make it compress well, like real ranked-screen payloads.
const screenPayload = `{"screens":[
	{"screenid":"SCR-001","name":"Forum Mall Atrium","screen_type":"LED","spec_city":"Bengaluru","primary_type":"shopping_mall","area_context":"commercial_hub","price_per_slot":450},
	{"screenid":"SCR-002","name":"Indiranagar Metro Gate","screen_type":"LCD","spec_city":"Bengaluru","primary_type":"transit_station","area_context":"transit_corridor","price_per_slot":300},
	{"screenid":"SCR-003","name":"Koramangala High Street","screen_type":"LED","spec_city":"Bengaluru","primary_type":"restaurant","area_context":"food_and_dining","price_per_slot":380}
]}`

func TestCompression_GzipAccepted(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(screenPayload))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Expected Content-Encoding gzip, got %q", rec.Header().Get("Content-Encoding"))
	}

	// Body must decompress back to the original payload
	gz, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("Response body is not valid gzip: %v", err)
	}
	defer gz.Close()

	decompressed, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("Failed to decompress body: %v", err)
	}
	if string(decompressed) != screenPayload {
		t.Errorf("Decompressed body doesn't match original payload")
	}
}

func TestCompression_NotAccepted(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(screenPayload))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Should not compress when client doesn't accept gzip")
	}
	if rec.Body.String() != screenPayload {
		t.Error("Uncompressed body should pass through unchanged")
	}
}

func TestCompression_OtherEncodingsIgnored(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(screenPayload))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screen-profile", nil)
	req.Header.Set("Accept-Encoding", "br, deflate")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Should not gzip when client only accepts other encodings")
	}
}

func TestCompression_StatusCodePreserved(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"screen not found"}}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screen-profile", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Error("Error responses should still be compressed")
	}
}

func TestCompression_ContentLengthRemoved(t *testing.T) {
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(screenPayload))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Header().Get("Content-Length") != "" {
		t.Error("Content-Length must be dropped on compressed responses")
	}
}

func TestCompression_ReducesPayloadSize(t *testing.T) {
	// Repeat the payload so the compression win is unambiguous
	large := strings.Repeat(screenPayload, 50)

	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(large))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Body.Len() >= len(large) {
		t.Errorf("Compressed size %d should be smaller than original %d",
			rec.Body.Len(), len(large))
	}
}

func TestCompression_ConcurrentRequests(t *testing.T) {
	// Pool reuse across concurrent requests must not corrupt output
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(screenPayload))
	})

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", nil)
			req.Header.Set("Accept-Encoding", "gzip")
			rec := httptest.NewRecorder()

			handler(rec, req)

			gz, err := gzip.NewReader(rec.Body)
			if err != nil {
				done <- err
				return
			}
			body, err := io.ReadAll(gz)
			gz.Close()
			if err != nil {
				done <- err
				return
			}
			if string(body) != screenPayload {
				done <- io.ErrUnexpectedEOF
				return
			}
			done <- nil
		}()
	}

	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Fatalf("Concurrent compression failed: %v", err)
		}
	}
}

func BenchmarkCompression(b *testing.B) {
	large := strings.Repeat(screenPayload, 10)
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(large))
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/discover", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}
