package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/geocoder89/contacthub/internal/repo"
)

// Aliased so callers holding only this package can still match, while
// handlers compare against the backend-neutral repo sentinels.
var (
	ErrNotFound         = repo.ErrNotFound
	ErrEmailAlreadyUsed = repo.ErrEmailAlreadyUsed
)

// ObserveFunc reports one finished store operation. Wired to prometheus by
// the caller so this package stays metrics-agnostic.
type ObserveFunc func(collection, op string, start time.Time, err error)

// collection is one JSON file holding the entire serialized sequence. The
// mutex is held for the full read-modify-write cycle of every mutation, so
// at most one mutation is in flight per collection and no update is ever
// silently clobbered by a concurrent writer.
type collection struct {
	path string
	mu   sync.Mutex
}

// load materializes the whole collection. A missing file reads as an empty
// collection (first run); any other failure is a storage error.
func (c *collection) load(ctx context.Context, out any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("load %s: %w", c.path, err)
	}

	data, err := os.ReadFile(c.path)

	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", c.path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", c.path, err)
	}

	return nil
}

// save rewrites the entire collection atomically: marshal, write a temp file
// next to the target, rename. Readers observe the pre- or post-mutation
// file, never a torn write.
func (c *collection) save(ctx context.Context, in any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save %s: %w", c.path, err)
	}

	data, err := json.Marshal(in)

	if err != nil {
		return fmt.Errorf("encode %s: %w", c.path, err)
	}

	dir := filepath.Dir(c.path)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".tmp-*")

	if err != nil {
		return fmt.Errorf("temp file for %s: %w", c.path, err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", c.path, err)
	}

	return nil
}
