package fetch

import (
	"context"

	"github.com/podjisin/tvd/internal/model"
)

// Locator resolves a post URL into media candidates via a browser session.
type Locator interface {
	Locate(ctx context.Context, req model.ResolveRequest) (*model.Resolution, error)
}

// Muxer downloads an HLS stream and muxes it into a single local file.
type Muxer interface {
	Mux(ctx context.Context, srcURL, outPath string, headers map[string]string, progress func(fraction float64)) error
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(*model.DownloadTask))
	SetLogCallback(func(string))
	AddTask(req model.DownloadRequest) (*model.DownloadTask, error)
	GetTask(id string) (*model.DownloadTask, bool)
	GetAllTasks() []*model.DownloadTask
	StopTask(id string) error
}
