package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDoJSON_SendsHeadersAndDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k-1" {
			t.Errorf("expected default header, got %q", r.Header.Get("X-Api-Key"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected json content type, got %q", r.Header.Get("Content-Type"))
		}
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"echo": in["name"]})
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.DefaultHeaders = map[string]string{"X-Api-Key": "k-1"}

	var out struct {
		Echo string `json:"echo"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPost, "v1/things", nil, map[string]string{"name": "sow"}, &out); err != nil {
		t.Fatalf("DoJSON error: %v", err)
	}
	if out.Echo != "sow" {
		t.Fatalf("expected echo sow, got %q", out.Echo)
	}
}

func TestDoJSON_Non2xxReturnsHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusConflict)
	}))
	defer ts.Close()

	c := New(time.Second)
	err := c.DoJSON(context.Background(), http.MethodGet, ts.URL+"/x", nil, nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if StatusCode(err) != http.StatusConflict {
		t.Fatalf("expected 409, got %d (%v)", StatusCode(err), err)
	}
}

func TestDoJSON_RelativePathWithoutBaseURL(t *testing.T) {
	c := New(0)
	if err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, nil); err == nil {
		t.Fatalf("expected error for relative path without BaseURL")
	}
}

func TestDoMultipartFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("photo")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		if hdr.Filename != "sow.jpg" || string(b) != "jpegbytes" {
			t.Errorf("unexpected upload %s %q", hdr.Filename, string(b))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer ts.Close()

	c, _ := NewWithBaseURL(ts.URL, time.Second)
	err := c.DoMultipartFile(context.Background(), "/upload", nil, "photo", "sow.jpg", strings.NewReader("jpegbytes"), nil)
	if err != nil {
		t.Fatalf("DoMultipartFile error: %v", err)
	}
}
