// Package chunk implements the Reassembler: it turns a directory of
// equally-sized chunk files into a populated OCI image layout.
package chunk

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/zarf-dev/seed-injector/pkg/seederrors"
)

// ChunkGlob is the filename pattern chunk producers must follow. Sort
// order is full-pathname ascending, so producers must zero-pad indices
// sufficiently for the expected chunk count (e.g. "-000", "-001", ...).
const ChunkGlob = "zarf-payload-*"

// Reassemble enumerates chunk files under initRoot, concatenates them in
// sorted order, verifies the SHA-256 digest against expectedHex, and on
// success extracts the gzip-compressed tar payload into seedRoot.
//
// No file is created under seedRoot unless the digest matches.
func Reassemble(initRoot, seedRoot, expectedHex string) error {
	paths, err := findChunks(initRoot)
	if err != nil {
		return err
	}

	payload, err := concatAndVerify(paths, expectedHex)
	if err != nil {
		return err
	}

	return extract(payload, seedRoot)
}

// findChunks globs ChunkGlob under root and returns the matches sorted
// by full pathname ascending.
func findChunks(root string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(root, ChunkGlob))
	if err != nil {
		return nil, fmt.Errorf("read glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no files matching %q under %s", seederrors.ErrNoChunksFound, ChunkGlob, root)
	}

	sort.Strings(matches)
	return matches, nil
}

// concatAndVerify reads each chunk in order into a single buffer while
// hashing it, then compares the digest to expectedHex (case-insensitive).
// It returns the concatenated bytes only on a match.
func concatAndVerify(paths []string, expectedHex string) ([]byte, error) {
	var buf bytes.Buffer
	hasher := sha256.New()
	mw := io.MultiWriter(&buf, hasher)

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", seederrors.ErrChunkRead, path, err)
		}
		_, err = io.Copy(mw, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", seederrors.ErrChunkRead, path, err)
		}
	}

	actual := hex.EncodeToString(hasher.Sum(nil))
	if !strings.EqualFold(actual, expectedHex) {
		return nil, fmt.Errorf("%w: expected %s, got %s", seederrors.ErrDigestMismatch, expectedHex, actual)
	}

	return buf.Bytes(), nil
}

// extract gzip-decompresses payload and untars it into root, rejecting
// entries that would escape root.
func extract(payload []byte, root string) error {
	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: open gzip stream: %v", seederrors.ErrExtraction, err)
	}
	defer gz.Close()

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("%w: create seed root: %v", seederrors.ErrExtraction, err)
	}

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: read tar entry: %v", seederrors.ErrExtraction, err)
		}

		target, err := safeJoin(root, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: mkdir %s: %v", seederrors.ErrExtraction, target, err)
			}
		case tar.TypeReg:
			if err := writeRegularFile(target, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("%w: mkdir parent of %s: %v", seederrors.ErrExtraction, target, err)
			}
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf("%w: symlink %s: %v", seederrors.ErrExtraction, target, err)
			}
		default:
			// Ignore other entry types (hardlinks, devices, …): the seed
			// image layout only ever needs directories, regular files,
			// and symlinks.
		}
	}
}

// safeJoin joins root and name, rejecting absolute paths and any ".."
// traversal that would resolve outside of root.
func safeJoin(root, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: absolute path %q", seederrors.ErrUnsafeTarEntry, name)
	}

	cleaned := filepath.Join(root, name)
	rootWithSep := filepath.Clean(root) + string(os.PathSeparator)
	if cleaned != filepath.Clean(root) && !strings.HasPrefix(cleaned, rootWithSep) {
		return "", fmt.Errorf("%w: %q escapes extraction root", seederrors.ErrUnsafeTarEntry, name)
	}

	return cleaned, nil
}

func writeRegularFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: mkdir parent of %s: %v", seederrors.ErrExtraction, target, err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", seederrors.ErrExtraction, target, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("%w: write %s: %v", seederrors.ErrExtraction, target, err)
	}
	return nil
}
