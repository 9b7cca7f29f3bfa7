package fingerprint

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/underwriting-cli/internal/model"
)

// FingerprintAll fingerprints many files across a bounded worker pool. Each
// computation is a pure function of one file, so results are collected in
// whatever order workers finish; downstream phases re-key by file path.
func (e *Engine) FingerprintAll(ctx context.Context, paths []string) []model.FileFingerprint {
	workers := e.cfg.Workers
	if workers <= 0 {
		workers = 8
	}

	var (
		mu      sync.Mutex
		results []model.FileFingerprint
	)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fp := e.Fingerprint(path, nil)
			mu.Lock()
			results = append(results, fp)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	errCount := 0
	for _, fp := range results {
		if fp.Status == model.PopulationError {
			errCount++
		}
	}
	zap.L().Info("fingerprint: batch complete",
		zap.Int("files", len(results)),
		zap.Int("errors", errCount),
		zap.Int("workers", workers),
	)

	return results
}
