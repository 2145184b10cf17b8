package model

import (
	"fmt"
	"strings"
	"time"
)

// DownloadTask represents a single download task
type DownloadTask struct {
	ID         string
	PostURL    string
	Media      MediaCandidate // resolved candidate, zero until resolving finishes
	UserAgent  string         // browser session UA, replayed on fetch requests
	Status     TaskStatus
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	Speed      string  // human readable speed (e.g., "1.2MB/s")
	ETASec     int     // ETA in seconds, -1 if unknown
	Downloaded int64   // bytes written so far
	TotalBytes int64   // expected total, LengthUnknown if the server did not say
	LastError  string  // last error message if any
	OutputPath string  // path the video is written to
	StartedAt  time.Time
	FinishedAt time.Time
}

// GetETAString returns ETA formatted as hh:mm:ss, or "—" if unknown
func (dt *DownloadTask) GetETAString() string {
	if dt.ETASec <= 0 {
		return "—"
	}

	hours := dt.ETASec / 3600
	minutes := (dt.ETASec % 3600) / 60
	seconds := dt.ETASec % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// GetDisplayTitle returns the output filename or the post URL in order of preference
func (dt *DownloadTask) GetDisplayTitle() string {
	if dt.OutputPath != "" {
		parts := strings.FieldsFunc(dt.OutputPath, func(r rune) bool {
			return r == '/' || r == '\\'
		})
		if len(parts) > 0 {
			filename := parts[len(parts)-1]
			if idx := strings.LastIndex(filename, "."); idx > 0 {
				filename = filename[:idx]
			}
			return filename
		}
	}
	return dt.PostURL
}
