package registry

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type pathKind int

const (
	kindUnknown pathKind = iota
	kindManifest
	kindBlob
)

const (
	manifestsToken = "/manifests/"
	blobsToken     = "/blobs/"
	v2Prefix       = "/v2/"
)

// parseV2Path locates the rightmost occurrence of "/manifests/" or
// "/blobs/" in a request path that begins with "/v2/". The segment
// immediately after that literal is the reference/digest; everything
// between "/v2/" and the literal is the (possibly multi-segment) name.
//
// This is deliberately plain string search, not a regular expression:
// a regex risks greedy/lazy bugs on repository names that themselves
// contain the substrings "manifests" or "blobs".
func parseV2Path(path string) (kind pathKind, name, ref string, ok bool) {
	rest, found := strings.CutPrefix(path, v2Prefix)
	if !found {
		return kindUnknown, "", "", false
	}

	mIdx := strings.LastIndex(rest, manifestsToken)
	bIdx := strings.LastIndex(rest, blobsToken)

	switch {
	case mIdx < 0 && bIdx < 0:
		return kindUnknown, "", "", false
	case mIdx > bIdx:
		name, ref = rest[:mIdx], rest[mIdx+len(manifestsToken):]
		kind = kindManifest
	default:
		name, ref = rest[:bIdx], rest[bIdx+len(blobsToken):]
		kind = kindBlob
	}

	if name == "" || ref == "" || strings.Contains(ref, "/") {
		return kindUnknown, "", "", false
	}
	return kind, name, ref, true
}

// probe handles GET /v2 and /v2/: the Distribution API liveness check.
func (h *handler) probe(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(apiVersionHeader, "registry/2.0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
}

// getManifest handles GET/HEAD /v2/<name>/manifests/<reference>.
func (h *handler) getManifest(w http.ResponseWriter, r *http.Request, name, reference string) {
	hexDigest, path, err := h.layout.Resolve(name, reference)
	if err != nil {
		notFound(w, r)
		return
	}

	f, info, err := openRegular(path)
	if err != nil {
		notFound(w, r)
		return
	}
	defer f.Close()

	digestHeader := "sha256:" + hexDigest
	w.Header().Set("Content-Type", "application/vnd.oci.image.manifest.v1+json")
	w.Header().Set("Docker-Content-Digest", digestHeader)
	w.Header().Set("Etag", digestHeader)
	w.Header().Set(apiVersionHeader, "registry/2.0")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, net/http discards whatever the handler writes
	// here while still sending the headers set above — exactly the
	// "identical headers, body is irrelevant" behavior the protocol
	// wants, with no special-casing required.
	_, _ = io.Copy(w, f)
}

// getBlob handles GET /v2/<name>/blobs/<digest>.
func (h *handler) getBlob(w http.ResponseWriter, r *http.Request, reference string) {
	hex := strings.TrimPrefix(reference, "sha256:")
	path, err := h.layout.ResolveBlob(hex)
	if err != nil {
		notFound(w, r)
		return
	}

	f, info, err := openRegular(path)
	if err != nil {
		notFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Docker-Content-Digest", reference)
	w.Header().Set("Etag", reference)
	w.Header().Set(apiVersionHeader, "registry/2.0")
	w.Header().Set("Cache-Control", "max-age=31536000")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)

	_, _ = io.Copy(w, f)
}

func openRegular(path string) (*os.File, os.FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, os.ErrNotExist
	}
	return f, info, nil
}
