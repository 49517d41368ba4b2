package storage

import "errors"

// ErrNotExist is returned by Get when no blob is stored under the path.
var ErrNotExist = errors.New("storage: blob does not exist")

// Store is the artifact store consumed by the problem service. It has no
// transactional participation: writers must store the blob first and only
// then publish its key.
type Store interface {
	Put(path string, data []byte) error
	Get(path string) ([]byte, error)
}

// TestCasePath is the storage key for a test-case archive.
func TestCasePath(archiveID string) string {
	return "test-case/" + archiveID + ".zip"
}
