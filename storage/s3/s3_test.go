package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/flowforge/storage"
)

// fakeS3 serves path-style PUT, HEAD and GET for a single bucket.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := strings.TrimPrefix(r.URL.Path, "/photos/")
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		f.objects[key] = data
		f.types[key] = r.Header.Get("Content-Type")
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if _, ok := f.objects[key]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStorage(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    "photos",
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	return s, fake
}

func TestUploadAndExists(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t)

	if err := s.Upload(ctx, "2024/a.jpg", strings.NewReader("jpeg")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if string(fake.objects["2024/a.jpg"]) == "" {
		t.Error("object not stored")
	}
	if fake.types["2024/a.jpg"] != "image/jpeg" {
		t.Errorf("expected image/jpeg content type, got %q", fake.types["2024/a.jpg"])
	}

	ok, err := s.Exists(ctx, "2024/a.jpg")
	if err != nil || !ok {
		t.Errorf("expected object to exist, got %v %v", ok, err)
	}
	ok, err = s.Exists(ctx, "missing.jpg")
	if err != nil || ok {
		t.Errorf("a missing object is not an error, got %v %v", ok, err)
	}
}

func TestDownload(t *testing.T) {
	ctx := context.Background()
	s, fake := newTestStorage(t)
	fake.objects["doc.txt"] = []byte("hello")

	rc, err := s.Download(ctx, "doc.txt")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "hello" {
		t.Errorf("expected hello, got %q", data)
	}
}

func TestURL(t *testing.T) {
	s, _ := newTestStorage(t)
	u, _ := s.URL(context.Background(), "a.jpg")
	if !strings.HasSuffix(u, "/photos/a.jpg") || !strings.HasPrefix(u, "http://127.0.0.1") {
		t.Errorf("unexpected url %q", u)
	}
}
