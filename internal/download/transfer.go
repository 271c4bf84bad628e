package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const audioExt = ".m4a"

// ProgressReader wraps an io.Reader and reports fractional progress through
// a callback as bytes flow.
type ProgressReader struct {
	reader   io.Reader
	total    int64
	current  int64
	callback func(fraction float64)
}

// NewProgressReader creates a progress tracking reader. With an unknown
// total the callback is never invoked; completion is reported by the caller.
func NewProgressReader(reader io.Reader, total int64, callback func(fraction float64)) *ProgressReader {
	return &ProgressReader{reader: reader, total: total, callback: callback}
}

func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)

	if pr.callback != nil && pr.total > 0 {
		pr.callback(float64(pr.current) / float64(pr.total))
	}

	return n, err
}

// Downloader performs single-attempt HTTP transfers into a target directory.
// Retry policy lives with the user, not here.
type Downloader struct {
	client    *http.Client
	targetDir string
	userAgent string
}

// NewDownloader creates a downloader writing completed files into targetDir.
func NewDownloader(targetDir string) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: 30 * time.Minute, // large audio files
		},
		targetDir: targetDir,
		userAgent: "strollcast/1.0",
	}
}

// Fetch downloads url into targetDir under filename. Bytes land in a temp
// file first and are moved, not copied, into place, so there is never a
// window with two full copies. Any prior file at the destination is removed
// first. Returns the final path.
func (d *Downloader) Fetch(ctx context.Context, url, filename string, onProgress func(fraction float64)) (string, error) {
	if err := os.MkdirAll(d.targetDir, 0o755); err != nil {
		return "", fmt.Errorf("create download directory: %w", err)
	}

	tempPath := filepath.Join(d.targetDir, "."+uuid.NewString()+".part")
	targetPath := filepath.Join(d.targetDir, filename)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var totalSize int64
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil {
			totalSize = size
		}
	}

	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	_, err = io.Copy(file, NewProgressReader(resp.Body, totalSize, onProgress))
	closeErr := file.Close()
	if err != nil {
		os.Remove(tempPath)
		// Unwrap the context error so cancellation stays distinguishable.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("write audio bytes: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}

	if err := os.Remove(targetPath); err != nil && !os.IsNotExist(err) {
		os.Remove(tempPath)
		return "", fmt.Errorf("remove prior download: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("move file into place: %w", err)
	}

	return targetPath, nil
}
