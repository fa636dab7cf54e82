package avatar

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultURL is the deterministic gravatar reference assigned at
// registration, derived from the email exactly as stored.
func DefaultURL(email string) string {
	sum := md5.Sum([]byte(email))
	return fmt.Sprintf("//www.gravatar.com/avatar/%s?s=250&r=pg&d=identicon", hex.EncodeToString(sum[:]))
}

// Store persists uploaded avatar bytes verbatim and returns the reference to
// put on the user. Any image transformation is someone else's problem.
type Store interface {
	Save(ctx context.Context, filename string, contentType string, body io.Reader) (string, error)
}

// DiskStore writes avatars under dir; the router serves that dir at
// /avatars/.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

func (s *DiskStore) Save(ctx context.Context, filename string, contentType string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", s.dir, err)
	}

	name := uniqueName(filename)
	path := filepath.Join(s.dir, name)

	f, err := os.Create(path)

	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close %s: %w", path, err)
	}

	return "/avatars/" + name, nil
}

// uniqueName keeps the upload's extension but never its name.
func uniqueName(filename string) string {
	return uuid.NewString() + filepath.Ext(filename)
}
