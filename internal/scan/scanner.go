// Package scan walks folders and fingerprints every supported image.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"imagededup/internal/hash"
	"imagededup/internal/store"
)

// Scanner discovers images and computes their fingerprints in parallel.
// Fingerprinting is embarrassingly parallel: one worker per image, results
// merged into the store by id.
type Scanner struct {
	method     hash.Method
	workers    int
	timeout    time.Duration
	progressFn func(scanned, total int, current string)
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMethod sets the hashing method.
func WithMethod(m hash.Method) Option {
	return func(s *Scanner) {
		s.method = m
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTimeout sets the timeout for hashing each image.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) {
		s.timeout = d
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn func(scanned, total int, current string)) Option {
	return func(s *Scanner) {
		s.progressFn = fn
	}
}

// NewScanner creates a new Scanner.
func NewScanner(opts ...Option) *Scanner {
	s := &Scanner{
		method:  hash.MethodPHash,
		workers: 8,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanFolder fingerprints every supported image under folder into the
// store. Files that fail to decode are logged and skipped; cancellation
// stops the workers at the next file boundary and leaves records already
// inserted intact.
func (s *Scanner) ScanFolder(ctx context.Context, folder string, st *store.Store) error {
	var paths []string
	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip unreadable entries
		}
		if info.IsDir() {
			return nil
		}
		if hash.IsSupportedImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk folder: %w", err)
	}

	if len(paths) == 0 {
		return nil
	}

	work := make(chan string, len(paths))
	for _, p := range paths {
		work <- p
	}
	close(work)

	var scanned int64
	total := len(paths)
	hasher := hash.NewHasher(s.method)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.workers; i++ {
		g.Go(func() error {
			for path := range work {
				if err := ctx.Err(); err != nil {
					return err
				}

				rec, err := hasher.HashImageWithTimeout(path, s.timeout)
				if err != nil {
					slog.Warn("skipping image", "path", path, "error", err)
					atomic.AddInt64(&scanned, 1)
					continue
				}

				if err := st.Put(rec); err != nil {
					return err
				}

				n := atomic.AddInt64(&scanned, 1)
				if s.progressFn != nil {
					s.progressFn(int(n), total, path)
				}
			}
			return nil
		})
	}

	return g.Wait()
}

// ScanFolders scans multiple folders into the same store.
func (s *Scanner) ScanFolders(ctx context.Context, folders []string, st *store.Store) error {
	for _, folder := range folders {
		if err := s.ScanFolder(ctx, folder, st); err != nil {
			return err
		}
	}
	return nil
}
