package indexer

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
)

// Hasher computes a content digest for a file inside fsys.
type Hasher interface {
	Hash(fsys fs.FS, name string) (string, error)
}

// SHA256Hasher hex-encodes the SHA-256 digest of the file contents.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
