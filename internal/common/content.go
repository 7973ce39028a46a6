package common

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CreateTempDir allocates a fresh workspace directory owned by exactly one
// upload execution. The caller removes it when the work is done.
func CreateTempDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "faf-upload-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}

	return dir, nil
}
