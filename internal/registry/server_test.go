package registry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/zarf-dev/seed-injector/internal/layout"
)

const testIndex = `{
  "schemaVersion": 2,
  "manifests": [
    {
      "mediaType": "application/vnd.oci.image.manifest.v1+json",
      "digest": "sha256:dead00000000000000000000000000000000000000000000000000000000beef",
      "size": 9,
      "annotations": {
        "org.opencontainers.image.base.name": "doom-game:0.0.1"
      }
    }
  ]
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, layout.ImageIndexFile), []byte(testIndex), 0o644); err != nil {
		t.Fatalf("write index.json: %v", err)
	}
	blobsDir := filepath.Join(root, layout.BlobsDir, "sha256")
	if err := os.MkdirAll(blobsDir, 0o755); err != nil {
		t.Fatalf("mkdir blobs: %v", err)
	}
	manifestDigest := "dead00000000000000000000000000000000000000000000000000000000beef"
	if err := os.WriteFile(filepath.Join(blobsDir, manifestDigest), []byte("manifest!"), 0o644); err != nil {
		t.Fatalf("write manifest blob: %v", err)
	}
	layerDigest := "cafe00000000000000000000000000000000000000000000000000000000f00d"
	if err := os.WriteFile(filepath.Join(blobsDir, layerDigest), []byte("layer-bytes"), 0o644); err != nil {
		t.Fatalf("write layer blob: %v", err)
	}

	l, err := layout.Open(root)
	if err != nil {
		t.Fatalf("layout.Open: %v", err)
	}
	return NewServer(l)
}

func TestProbe(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/v2", "/v2/"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d", path, rec.Code)
		}
		if got := rec.Header().Get(apiVersionHeader); got != "registry/2.0" {
			t.Errorf("GET %s: api version header = %q", path, got)
		}
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Errorf("GET %s: nosniff header = %q", path, got)
		}
	}
}

func TestGetManifestByTag(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/manifests/0.0.1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/vnd.oci.image.manifest.v1+json" {
		t.Errorf("content type = %q", got)
	}
	wantDigest := "sha256:dead00000000000000000000000000000000000000000000000000000000beef"
	if got := rec.Header().Get("Docker-Content-Digest"); got != wantDigest {
		t.Errorf("digest header = %q, want %q", got, wantDigest)
	}
	if rec.Body.String() != "manifest!" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestGetManifestByDigestIgnoresName(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/anything/you/like/manifests/sha256:dead00000000000000000000000000000000000000000000000000000000beef", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "manifest!" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestGetManifestUnknownTag(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/manifests/9.9.9", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHeadManifestSameHeadersAsGet(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodHead, "/v2/doom-game/manifests/0.0.1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get(apiVersionHeader); got != "registry/2.0" {
		t.Errorf("api version header = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "9" {
		t.Errorf("content length = %q", got)
	}
}

func TestGetBlob(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/blobs/sha256:cafe00000000000000000000000000000000000000000000000000000000f00d", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("content type = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "max-age=31536000" {
		t.Errorf("cache-control = %q", got)
	}
	if rec.Body.String() != "layer-bytes" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestGetBlobMissing(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/blobs/sha256:0000000000000000000000000000000000000000000000000000000000000000", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestUnknownPathIs404(t *testing.T) {
	h := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/tags/list", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestIdempotentRepeatedGet(t *testing.T) {
	h := newTestServer(t)

	var first string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v2/doom-game/manifests/0.0.1", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		body, err := io.ReadAll(rec.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		if i == 0 {
			first = string(body)
		} else if string(body) != first {
			t.Errorf("response %d differs from first: %q vs %q", i, body, first)
		}
	}
}
