// Package download fetches NEON reflectance tiles over HTTP into a local
// data directory. The rest of the tool only ever reads the downloaded
// file; this is the single networked step.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// DefaultTileURL is the 2021 SERC D02 surface directional reflectance
// tile (DP3.30006.001) used throughout the documentation.
const DefaultTileURL = "https://storage.googleapis.com/neon-aop-products/2021/FullSite/D02/2021_SERC_5/L3/Spectrometer/Reflectance/NEON_D02_SERC_DP3_368000_4306000_reflectance.h5"

const maxRetries = 5

// Fetch downloads rawURL into dir, creating dir if needed, and returns
// the local path. An existing non-empty file is reused without a network
// request. Transient failures are retried with exponential backoff.
func Fetch(ctx context.Context, rawURL, dir string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing url %q: %w", rawURL, err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}
	dest := filepath.Join(dir, name)

	if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
		logrus.WithField("path", dest).Info("tile already downloaded, skipping")
		return dest, nil
	}

	logrus.WithFields(logrus.Fields{"url": rawURL, "path": dest}).Info("downloading tile")

	op := func() error {
		return fetchOnce(ctx, rawURL, dest)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return "", fmt.Errorf("downloading %s: %w", rawURL, err)
	}

	return dest, nil
}

func fetchOnce(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("server returned %s", resp.Status)
	default:
		// Client errors will not improve with retrying.
		return backoff.Permanent(fmt.Errorf("server returned %s", resp.Status))
	}

	tmp := dest + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return backoff.Permanent(err)
	}

	n, err := io.Copy(f, resp.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return backoff.Permanent(err)
	}

	logrus.WithFields(logrus.Fields{"path": dest, "bytes": n}).Info("download complete")
	return nil
}
