/*
 * @module service/storage/file_store
 * @description Durable storage for reference label images, keyed by question id
 * @architecture repository pattern over the local filesystem
 * @documentReference dev_docs/etiqueta_pipeline.md
 * @stateFlow save on question creation -> open for every scoring call -> remove on administrative delete
 * @rules stored files are immutable; the content hash is recorded for integrity checks
 * @dependencies crypto/sha256, io, os
 * @refs service/etiqueta/service.go
 */

package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore persists reference images under a root directory.
type FileStore struct {
	root string
}

// NewFileStore creates the store, ensuring the root directory exists.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "./data/reference-images"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating storage root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

// Save writes the image for a question and returns its storage path and
// SHA-256 content hash.
func (fs *FileStore) Save(questionID, originalName string, r io.Reader) (path string, hash string, err error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".img"
	}

	path = filepath.Join(fs.root, questionID+ext)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", "", fmt.Errorf("creating reference image %s: %w", path, err)
	}

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(f, h), r); err != nil {
		f.Close()
		os.Remove(path)
		return "", "", fmt.Errorf("writing reference image %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", "", fmt.Errorf("closing reference image %s: %w", path, err)
	}

	return path, hex.EncodeToString(h.Sum(nil)), nil
}

// Open returns a reader over a stored image.
func (fs *FileStore) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening reference image %s: %w", path, err)
	}
	return f, nil
}

// Remove deletes a stored image. Missing files are not an error.
func (fs *FileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing reference image %s: %w", path, err)
	}
	return nil
}

// Root returns the storage root directory.
func (fs *FileStore) Root() string {
	return fs.root
}
