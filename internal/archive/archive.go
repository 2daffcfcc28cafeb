// Package archive stores full score documents (score, band, breakdown) as
// JSON blobs. The database row is the canonical record; the archive keeps
// the complete document for audit and replay.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Client abstracts blob storage for archived score documents.
type Client interface {
	PutScore(ctx context.Context, accountID, scoreID string, data []byte) error
	GetScore(ctx context.Context, accountID, scoreID string) ([]byte, error)
}

// Ref is the storage reference recorded alongside the database row.
func Ref(accountID, scoreID string) string {
	return accountID + "/scores/" + scoreID + ".json"
}

// Local implements Client on the local filesystem. Useful for development
// and testing.
type Local struct {
	BaseDir string
}

// NewLocal creates a Local archive rooted at the given directory.
func NewLocal(baseDir string) *Local {
	return &Local{BaseDir: baseDir}
}

func (l *Local) path(accountID, scoreID string) string {
	return filepath.Join(l.BaseDir, accountID, "scores", scoreID+".json")
}

func (l *Local) PutScore(ctx context.Context, accountID, scoreID string, data []byte) error {
	path := l.path(accountID, scoreID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (l *Local) GetScore(ctx context.Context, accountID, scoreID string) ([]byte, error) {
	return os.ReadFile(l.path(accountID, scoreID))
}
