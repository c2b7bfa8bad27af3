// Package blob stores item blobs on disk, content-addressed by blake3 hash
// and s2-compressed at rest. The wire always carries the raw bytes; the
// compression is purely a persistence detail.
package blob

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/s2"
	"github.com/zeebo/blake3"
)

// ErrNotFound: no blob stored under the given id.
var ErrNotFound = errors.New("blob: not found")

// Store is a directory of compressed, content-addressed blobs.
type Store struct {
	dir string
}

// Open ensures dir exists and returns a store over it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir}, nil
}

// ID returns the hex blake3 hash of data; two identical blobs share one id,
// which is how duplicate uploads are detected.
func ID(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".s2")
}

// Put writes data under its content id and returns the id. Re-putting an
// existing blob is a no-op.
func (s *Store) Put(data []byte) (string, error) {
	id := ID(data)
	p := s.path(id)
	if _, err := os.Stat(p); err == nil {
		return id, nil
	}
	if err := os.WriteFile(p, s2.Encode(nil, data), 0o644); err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the decompressed blob for id.
func (s *Store) Get(id string) ([]byte, error) {
	compressed, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s2.Decode(nil, compressed)
}

// Has reports whether a blob with this id is stored.
func (s *Store) Has(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Delete removes the blob for id; deleting a missing blob is not an error.
func (s *Store) Delete(id string) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
