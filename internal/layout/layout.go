// Package layout resolves (name, reference) pairs against an OCI image
// layout rooted at a fixed directory, the way the Registry HTTP surface
// needs to turn a client request into a blob path.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/zarf-dev/seed-injector/pkg/seederrors"
)

// OCI image layout filenames, per the spec.
const (
	ImageLayoutFile = "oci-layout"
	ImageIndexFile  = "index.json"
	BlobsDir        = "blobs"
	blobAlgoDir     = "sha256"

	// baseNameAnnotation is the index.json manifest annotation that
	// carries the "<name>:<tag>" probe string for tag resolution.
	baseNameAnnotation = "org.opencontainers.image.base.name"

	digestPrefix = "sha256:"
)

// Layout is an immutable handle onto a populated OCI image layout. It
// caches index.json at construction time, which is safe because the
// Reassembler finishes writing the layout before any Layout is built.
type Layout struct {
	root  string
	index ocispec.Index
}

// Open reads and parses index.json under root. It does not validate
// that every referenced blob exists; that is checked lazily on
// resolution, matching the spec's "LayoutCorruption -> 404, don't
// crash" error policy.
func Open(root string) (*Layout, error) {
	data, err := os.ReadFile(filepath.Join(root, ImageIndexFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read index.json: %v", seederrors.ErrLayoutCorrupt, err)
	}

	var index ocispec.Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: parse index.json: %v", seederrors.ErrLayoutCorrupt, err)
	}

	return &Layout{root: root, index: index}, nil
}

// BlobPath returns the on-disk path for a sha256 hex digest, without
// checking that the file exists.
func (l *Layout) BlobPath(hex string) string {
	return filepath.Join(l.root, BlobsDir, blobAlgoDir, hex)
}

// Resolve turns a requested (name, reference) into the hex digest and
// path of the manifest blob that should be served for it.
//
// If reference is a "sha256:<hex>" digest, the index is not consulted:
// the hex is taken directly, and only its existence on disk is checked
// (spec.md's "digest transparency" property). Otherwise reference is
// treated as a tag: manifests[] is scanned in document order for an
// entry whose org.opencontainers.image.base.name annotation equals
// "<name>:<reference>" exactly; the first match wins.
func (l *Layout) Resolve(name, reference string) (hexDigest string, path string, err error) {
	if strings.HasPrefix(reference, digestPrefix) {
		hex, ok := parseSha256Digest(reference)
		if !ok {
			return "", "", fmt.Errorf("%w: malformed digest reference %s", seederrors.ErrNotFound, reference)
		}
		return l.resolveBlob(hex)
	}

	probe := name + ":" + reference
	for _, m := range l.index.Manifests {
		if m.Annotations == nil {
			continue
		}
		baseName, ok := m.Annotations[baseNameAnnotation]
		if !ok || baseName != probe {
			continue
		}
		hex, ok := parseSha256Digest(string(m.Digest))
		if !ok {
			// Digest field wasn't of the expected "sha256:<hex>" form;
			// it cannot match any legal probe, so skip it silently.
			continue
		}
		return l.resolveBlob(hex)
	}

	return "", "", fmt.Errorf("%w: no manifest for %s", seederrors.ErrNotFound, probe)
}

// ResolveBlob validates that a bare sha256 hex digest has a backing
// blob file and returns its path. Used directly for the blob-fetch
// route, which never consults index.json.
func (l *Layout) ResolveBlob(hex string) (string, error) {
	_, path, err := l.resolveBlob(hex)
	return path, err
}

// parseSha256Digest reports whether s is a well-formed "sha256:<hex>"
// digest string, returning its hex-encoded part. Validation (length,
// algorithm, hex alphabet) is delegated to go-digest, the same package
// the OCI distribution stack uses to move digests across process
// boundaries.
func parseSha256Digest(s string) (hex string, ok bool) {
	d, err := digest.Parse(s)
	if err != nil || d.Algorithm() != digest.SHA256 {
		return "", false
	}
	return d.Encoded(), true
}

func (l *Layout) resolveBlob(hex string) (string, string, error) {
	path := l.BlobPath(hex)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", "", fmt.Errorf("%w: blob %s", seederrors.ErrNotFound, hex)
	}
	return hex, path, nil
}
