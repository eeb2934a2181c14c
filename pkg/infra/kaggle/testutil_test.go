package kaggle_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/gt"
)

const (
	testUser = "tester"
	testKey  = "0123456789abcdef"
)

// fakeAPI serves the subset of the Kaggle API used by the client
type fakeAPI struct {
	mu            sync.Mutex
	archive       []byte
	totalBytes    int64
	downloadQuery string
	downloadCalls int
	truncate      bool
}

func (f *fakeAPI) server(t *testing.T) *httptest.Server {
	router := chi.NewRouter()
	router.Use(middleware.BasicAuth("kaggle", map[string]string{testUser: testKey}))

	router.Get("/api/v1/datasets/view/{owner}/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "slug") == "missing" {
			http.Error(w, `{"code":404,"message":"Not found"}`, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		gt.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"ref":        chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "slug"),
			"title":      "Chest X-Ray Images (Pneumonia)",
			"totalBytes": f.totalBytes,
			"url":        "https://www.kaggle.com/" + chi.URLParam(r, "owner") + "/" + chi.URLParam(r, "slug"),
		}))
	})

	router.Get("/api/v1/datasets/download/{owner}/{slug}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.downloadCalls++
		f.downloadQuery = r.URL.RawQuery
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/zip")
		if f.truncate {
			// Announce more bytes than are sent so the transfer ends early
			w.Header().Set("Content-Length", "999999")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(f.archive[:len(f.archive)/2])
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(f.archive)
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func (f *fakeAPI) calls() (int, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloadCalls, f.downloadQuery
}

func writeCredentials(t *testing.T, user, key string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "kaggle.json")
	data, err := json.Marshal(map[string]string{"username": user, "key": key})
	gt.NoError(t, err)
	gt.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func createTestZip(t *testing.T) []byte {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	writer, err := zipWriter.Create("chest_xray/README.md")
	gt.NoError(t, err)
	_, err = writer.Write([]byte("# Chest X-Ray"))
	gt.NoError(t, err)

	gt.NoError(t, zipWriter.Close())
	return buf.Bytes()
}
