package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/podjisin/tvd/internal/httputil"
	"github.com/podjisin/tvd/internal/model"
)

const chunkSize = 1 << 20 // 1 MiB copy buffer

// ProgressFunc receives download progress: bytes written so far, the expected
// total (model.LengthUnknown when the server did not say), and a stage label.
type ProgressFunc func(done, total int64, stage string)

// Download streams rawURL to outPath with resume support. When a partial file
// exists and the server advertises byte ranges, the download continues from
// where it left off; a server that ignores the Range request triggers a clean
// restart. Cancellation propagates through ctx.
func Download(ctx context.Context, client *http.Client, rawURL, outPath string, headers map[string]string, progress ProgressFunc) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	report := func(done, total int64, stage string) {
		if progress != nil {
			progress(done, total, stage)
		}
	}

	var existingSize int64
	if info, err := os.Stat(outPath); err == nil {
		existingSize = info.Size()
	}

	supportsRanges, totalSize := probeResource(ctx, client, rawURL, headers)

	if totalSize > 0 && existingSize >= totalSize {
		report(existingSize, totalSize, "Already downloaded")
		return nil
	}

	flags := os.O_CREATE | os.O_WRONLY
	downloaded := int64(0)
	if existingSize > 0 && supportsRanges {
		flags |= os.O_APPEND
		downloaded = existingSize
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(outPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("opening output file: %w", err)
	}
	defer f.Close()

	for {
		reqHeaders := make(map[string]string, len(headers)+1)
		for key, value := range headers {
			reqHeaders[key] = value
		}
		rangeRequested := false
		if supportsRanges && downloaded > 0 {
			reqHeaders["Range"] = fmt.Sprintf("bytes=%d-", downloaded)
			rangeRequested = true
		}

		req, err := httputil.NewRequest(ctx, http.MethodGet, rawURL, reqHeaders)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("fetching video: %w", err)
		}

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
			resp.Body.Close()
			return fmt.Errorf("unexpected HTTP status: %d", resp.StatusCode)
		}

		if totalSize == model.LengthUnknown && resp.ContentLength > 0 {
			if resp.StatusCode == http.StatusPartialContent {
				totalSize = downloaded + resp.ContentLength
			} else {
				totalSize = resp.ContentLength
			}
		}

		// A 200 to a Range request means the server sent the whole file again.
		if rangeRequested && resp.StatusCode == http.StatusOK && downloaded > 0 {
			if err := restartFile(f); err != nil {
				resp.Body.Close()
				return err
			}
			downloaded = 0
			report(downloaded, totalSize, "Server ignored Range; restarting")
		}

		wroteAny, written, copyErr := copyBody(resp.Body, f, downloaded, totalSize, report)
		resp.Body.Close()
		downloaded = written
		if copyErr != nil {
			return fmt.Errorf("writing video: %w", copyErr)
		}

		if !wroteAny {
			break
		}
		if totalSize > 0 && downloaded >= totalSize {
			break
		}
		if !supportsRanges {
			break
		}
	}

	report(downloaded, totalSize, "Done")
	return nil
}

// probeResource issues a HEAD request to learn about range support and total
// size. Failures are not fatal, the download proceeds without resume support.
func probeResource(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (supportsRanges bool, totalSize int64) {
	totalSize = model.LengthUnknown

	req, err := httputil.NewRequest(ctx, http.MethodHead, rawURL, headers)
	if err != nil {
		return false, totalSize
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, totalSize
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, totalSize
	}

	if strings.EqualFold(resp.Header.Get("Accept-Ranges"), "bytes") {
		supportsRanges = true
	}
	if clen := resp.Header.Get("Content-Length"); clen != "" {
		if parsed, err := strconv.ParseInt(clen, 10, 64); err == nil {
			totalSize = parsed
		}
	}
	return supportsRanges, totalSize
}

func restartFile(f *os.File) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncating output file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding output file: %w", err)
	}
	return nil
}

func copyBody(body io.Reader, f *os.File, downloaded, totalSize int64, report ProgressFunc) (wroteAny bool, written int64, err error) {
	buf := make([]byte, chunkSize)
	written = downloaded

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := f.Write(buf[:n]); writeErr != nil {
				return wroteAny, written, writeErr
			}
			wroteAny = true
			written += int64(n)
			report(written, totalSize, "Downloading")
		}
		if readErr == io.EOF {
			return wroteAny, written, nil
		}
		if readErr != nil {
			return wroteAny, written, readErr
		}
	}
}
