// Package docstore fetches model files and their metadata from the remote
// document store. The pipeline core treats these as opaque blocking calls:
// failures surface per file and the batch continues.
package docstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/underwriting-cli/internal/config"
	"github.com/sells-group/underwriting-cli/internal/model"
)

// HTTPClient downloads file bytes from the document store's HTTP gateway,
// rate limited so bulk fingerprinting runs do not saturate it.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPClient creates a rate-limited HTTP document-store client.
func NewHTTPClient(cfg config.DocstoreConfig) *HTTPClient {
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4.0
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Download fetches one file's raw bytes by its store path.
func (c *HTTPClient) Download(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "docstore: rate limiter")
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: build request %s", path)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: fetch %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("docstore: fetch %s: status %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "docstore: read %s", path)
	}

	zap.L().Debug("docstore: downloaded",
		zap.String("path", path), zap.Int("bytes", len(data)))
	return data, nil
}

// Mirror downloads every listed file into dir, one subdirectory per deal,
// and points each descriptor at its local copy so downstream phases parse
// local files.
func (c *HTTPClient) Mirror(ctx context.Context, dir string, descriptors []model.FileDescriptor) error {
	for i := range descriptors {
		d := &descriptors[i]

		data, err := c.Download(ctx, d.Path)
		if err != nil {
			return err
		}

		local := filepath.Join(dir, d.DealName, d.Name)
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return eris.Wrapf(err, "docstore: create mirror dir for %s", d.Name)
		}
		if err := os.WriteFile(local, data, 0o644); err != nil {
			return eris.Wrapf(err, "docstore: write %s", local)
		}
		d.Path = local
	}

	zap.L().Info("docstore: mirrored files",
		zap.String("dir", dir), zap.Int("files", len(descriptors)))
	return nil
}
