// Package mux delegates HLS fetching to ffmpeg: the manifest URL is handed to
// ffmpeg with stream copy so segments are downloaded and muxed into a single
// MP4 without re-encoding. Progress is parsed from ffmpeg's -progress output
// against a duration probed with ffprobe.
package mux

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	DefaultFFmpegCommand = "ffmpeg"

	ffprobeLogLevel     = "error"
	ffprobeShowEntries  = "format=duration"
	ffprobeOutputFormat = "csv=p=0"

	progressPipeTarget = "pipe:2"
	progressTimePrefix = "out_time_us="

	fastStartFlag = "+faststart"
)

// ErrFFmpegNotFound means the external muxing tool is missing; surfaced
// verbatim to the user since it requires an install, not a retry.
var ErrFFmpegNotFound = errors.New("ffmpeg not found, install it to download HLS streams")

// Service runs ffmpeg muxing jobs.
type Service struct {
	ffmpegPath string
	log        *logrus.Logger
}

// New creates a muxing service. An empty path means "ffmpeg" from PATH; a nil
// logger falls back to the standard logrus logger.
func New(ffmpegPath string, log *logrus.Logger) *Service {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegCommand
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{ffmpegPath: ffmpegPath, log: log}
}

// Mux downloads the HLS stream at srcURL and writes a single MP4 to outPath.
// Headers (Referer, User-Agent) are forwarded so the CDN accepts the request.
// progress receives fractions in [0,1] and may be nil; it is never called when
// the stream duration cannot be probed. A partial output file is removed on
// failure or cancellation.
func (s *Service) Mux(ctx context.Context, srcURL, outPath string, headers map[string]string, progress func(fraction float64)) error {
	ffmpeg, err := exec.LookPath(s.ffmpegPath)
	if err != nil {
		return ErrFFmpegNotFound
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// Best effort: without a duration the download still runs, just without
	// a percentage.
	duration, err := s.probeDuration(ctx, srcURL, headers)
	if err != nil {
		s.log.WithError(err).Debug("could not probe stream duration")
		duration = 0
	}

	cmd := exec.CommandContext(ctx, ffmpeg, buildArgs(srcURL, outPath, headers)...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	go monitorProgress(stderr, duration, progress)

	err = cmd.Wait()
	if ctx.Err() != nil {
		os.Remove(outPath)
		return ctx.Err()
	}
	if err != nil {
		os.Remove(outPath)
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	return nil
}

// buildArgs assembles the ffmpeg command line: stream copy, faststart MP4,
// machine-readable progress on stderr.
func buildArgs(srcURL, outPath string, headers map[string]string) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
	}

	if hdr := formatHeaders(headers); hdr != "" {
		args = append(args, "-headers", hdr)
	}

	args = append(args,
		"-i", srcURL,
		"-c", "copy",
		"-movflags", fastStartFlag,
		"-progress", progressPipeTarget,
		"-nostats",
		outPath,
	)
	return args
}

// formatHeaders renders headers as the CRLF-joined block ffmpeg expects.
// Keys are sorted so the command line is deterministic.
func formatHeaders(headers map[string]string) string {
	if len(headers) == 0 {
		return ""
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(headers[key])
		b.WriteString("\r\n")
	}
	return b.String()
}

// probeDuration reads the stream duration in seconds using ffprobe.
func (s *Service) probeDuration(ctx context.Context, srcURL string, headers map[string]string) (float64, error) {
	args := []string{"-v", ffprobeLogLevel}
	if hdr := formatHeaders(headers); hdr != "" {
		args = append(args, "-headers", hdr)
	}
	args = append(args, "-show_entries", ffprobeShowEntries, "-of", ffprobeOutputFormat, srcURL)

	cmd := exec.CommandContext(ctx, deriveProbePath(s.ffmpegPath), args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("running ffprobe: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}
	return duration, nil
}

// deriveProbePath maps the configured ffmpeg binary to its sibling ffprobe,
// keeping any custom directory prefix.
func deriveProbePath(ffmpegPath string) string {
	dir := filepath.Dir(ffmpegPath)
	base := strings.Replace(filepath.Base(ffmpegPath), "ffmpeg", "ffprobe", 1)
	if dir == "." && !strings.HasPrefix(ffmpegPath, "./") {
		return base
	}
	return filepath.Join(dir, base)
}

// monitorProgress parses out_time_us= lines from ffmpeg's progress output.
func monitorProgress(stderr io.ReadCloser, totalDuration float64, progress func(fraction float64)) {
	defer stderr.Close()

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, progressTimePrefix) {
			continue
		}

		timeMicroseconds, err := strconv.ParseInt(strings.TrimPrefix(line, progressTimePrefix), 10, 64)
		if err != nil {
			continue
		}

		if totalDuration <= 0 || progress == nil {
			continue
		}

		fraction := (float64(timeMicroseconds) / 1e6) / totalDuration
		if fraction > 1.0 {
			fraction = 1.0
		}
		progress(fraction)
	}
}
