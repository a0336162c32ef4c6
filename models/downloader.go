package models

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProgressFunc receives download progress in percent (0-100).
type ProgressFunc func(progress float64)

// DownloadOptions tunes a single download.
type DownloadOptions struct {
	ExpectedSize int64  // used when the server sends no Content-Length
	AuthToken    string // sent as a bearer token when set
	OnProgress   ProgressFunc
	Client       *http.Client
}

// DownloadFile fetches url into destPath through a temporary file, so an
// interrupted download never leaves a truncated model behind.
func DownloadFile(ctx context.Context, url, destPath string, opts DownloadOptions) error {
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := fetch(ctx, url, out, opts); err != nil {
		out.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

func fetch(ctx context.Context, url string, w io.Writer, opts DownloadOptions) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if opts.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+opts.AuthToken)
	}

	client := opts.Client
	if client == nil {
		client = &http.Client{} // no timeout, models are large
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = opts.ExpectedSize
	}
	reader := &progressReader{
		reader:     resp.Body,
		totalSize:  total,
		onProgress: opts.OnProgress,
	}
	if _, err := io.Copy(w, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// DownloadAndExtractTarBz2 downloads a .tar.bz2 archive and unpacks it into
// destDir. The directory only appears once extraction has succeeded.
func DownloadAndExtractTarBz2(ctx context.Context, url, destDir string, opts DownloadOptions) error {
	archivePath := destDir + ".tar.bz2"
	if err := DownloadFile(ctx, url, archivePath, opts); err != nil {
		return err
	}
	defer os.Remove(archivePath)

	stagingDir := destDir + ".partial"
	os.RemoveAll(stagingDir)
	if err := extractTarBz2(archivePath, stagingDir); err != nil {
		os.RemoveAll(stagingDir)
		return err
	}

	os.RemoveAll(destDir)
	if err := os.Rename(stagingDir, destDir); err != nil {
		os.RemoveAll(stagingDir)
		return fmt.Errorf("failed to move extracted model: %w", err)
	}
	return nil
}

func extractTarBz2(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tr := tar.NewReader(bzip2.NewReader(f))
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read archive: %w", err)
		}

		target, err := safeJoin(destDir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeEntry(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return err
			}
		default:
			// links and specials are not part of model archives
		}
	}
}

// safeJoin rejects entries that would escape destDir.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive entry escapes destination: %s", name)
	}
	return target, nil
}

func writeEntry(target string, r io.Reader, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if perm == 0 {
		perm = 0644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract %s: %w", target, err)
	}
	return out.Close()
}

// progressReader reports progress at most every reportPeriod.
type progressReader struct {
	reader       io.Reader
	totalSize    int64
	downloaded   int64
	onProgress   ProgressFunc
	lastReport   time.Time
	reportPeriod time.Duration
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n > 0 || err == io.EOF {
		pr.downloaded += int64(n)

		if pr.reportPeriod == 0 {
			pr.reportPeriod = 500 * time.Millisecond
		}
		now := time.Now()
		if pr.onProgress != nil && pr.totalSize > 0 &&
			(now.Sub(pr.lastReport) >= pr.reportPeriod || err == io.EOF) {
			pr.lastReport = now
			pr.onProgress(min(float64(pr.downloaded)/float64(pr.totalSize)*100, 100))
		}
	}
	return n, err
}
