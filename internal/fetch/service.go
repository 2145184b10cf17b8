package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/podjisin/tvd/internal/httputil"
	"github.com/podjisin/tvd/internal/model"
)

const (
	// maxActiveTasks keeps one browser session and one output file handle
	// in flight at a time; further requests queue as Pending.
	maxActiveTasks = 1

	taskIDPrefix = "task-"

	outputExtension = ".mp4"

	// progressInterval throttles UI updates during a download.
	progressInterval = 200 * time.Millisecond

	stopPollInterval = 100 * time.Millisecond
)

// Service handles download operations
type Service struct {
	tasks       map[string]*model.DownloadTask
	requests    map[string]model.DownloadRequest
	tasksMutex  sync.RWMutex
	activeCount int
	outputDir   string
	locator     Locator
	muxer       Muxer
	client      *http.Client
	log         *logrus.Logger
	onUpdate    func(*model.DownloadTask) // callback for UI updates
	onLog       func(string)
}

// NewService creates a new download service
func NewService(outputDir string, locator Locator, muxer Muxer, client *http.Client, log *logrus.Logger) *Service {
	if client == nil {
		client = httputil.NewClient()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		tasks:     make(map[string]*model.DownloadTask),
		requests:  make(map[string]model.DownloadRequest),
		outputDir: outputDir,
		locator:   locator,
		muxer:     muxer,
		client:    client,
		log:       log,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.DownloadTask)) {
	s.onUpdate = callback
}

// SetLogCallback mirrors pipeline log lines to the given function
func (s *Service) SetLogCallback(callback func(string)) {
	s.onLog = callback
}

// AddTask queues a download for the given post URL
func (s *Service) AddTask(req model.DownloadRequest) (*model.DownloadTask, error) {
	if err := httputil.ValidateURL(req.PostURL); err != nil {
		return nil, err
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		derived, err := httputil.SafeDownloadPath(s.outputDir, httputil.DefaultOutputName(req.PostURL)+outputExtension)
		if err != nil {
			return nil, fmt.Errorf("deriving output path: %w", err)
		}
		outputPath = derived
	}

	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	// Check for duplicate URLs
	for _, task := range s.tasks {
		if task.PostURL == req.PostURL && !task.Status.IsFinished() {
			return nil, fmt.Errorf("task already exists for URL: %s", req.PostURL)
		}
	}

	task := &model.DownloadTask{
		ID:         generateTaskID(),
		PostURL:    req.PostURL,
		Status:     model.TaskStatusPending,
		ETASec:     -1,
		TotalBytes: model.LengthUnknown,
		OutputPath: outputPath,
		StartedAt:  time.Now(),
	}

	s.tasks[task.ID] = task
	s.requests[task.ID] = req

	if s.activeCount < maxActiveTasks {
		go s.startTask(task, req)
	}

	return task, nil
}

// GetTask returns a task by ID
func (s *Service) GetTask(id string) (*model.DownloadTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[id]
	return task, exists
}

// GetAllTasks returns all tasks
func (s *Service) GetAllTasks() []*model.DownloadTask {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*model.DownloadTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// StopTask stops a running task
func (s *Service) StopTask(id string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[id]
	if !exists {
		return fmt.Errorf("task not found: %s", id)
	}

	if !task.Status.IsActive() {
		return fmt.Errorf("task is not active: %s", task.Status)
	}

	// The task goroutine observes this and cancels its context
	task.Status = model.TaskStatusStopping
	s.notifyUpdate(task)

	return nil
}

// startTask runs the resolve-pick-fetch pipeline for one task
func (s *Service) startTask(task *model.DownloadTask, req model.DownloadRequest) {
	s.tasksMutex.Lock()
	s.activeCount++
	task.Status = model.TaskStatusResolving
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	defer func() {
		s.tasksMutex.Lock()
		s.activeCount--
		s.tasksMutex.Unlock()

		s.startNextPendingTask()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Monitor for stop requests
	go func() {
		for {
			s.tasksMutex.RLock()
			status := task.Status
			s.tasksMutex.RUnlock()

			if status == model.TaskStatusStopping {
				cancel()
				return
			}
			if status.IsFinished() {
				return
			}
			time.Sleep(stopPollInterval)
		}
	}()

	err := s.runPipeline(ctx, task, req)

	s.tasksMutex.Lock()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			task.Status = model.TaskStatusStopped
		} else {
			task.Status = model.TaskStatusError
			task.LastError = err.Error()
		}
	} else {
		task.Status = model.TaskStatusCompleted
		task.Progress = 1.0
		task.Percent = 100
	}
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	if err != nil {
		s.log.WithError(err).WithField("task", task.ID).Warn("download failed")
		s.logLine(fmt.Sprintf("ERROR: %v", err))
	} else {
		s.logLine(fmt.Sprintf("Saved: %s", task.OutputPath))
	}

	s.notifyUpdate(task)
}

// runPipeline resolves the post and fetches the best candidate
func (s *Service) runPipeline(ctx context.Context, task *model.DownloadTask, req model.DownloadRequest) error {
	s.logLine(fmt.Sprintf("Sniffing media URLs for %s", req.PostURL))

	resolution, err := s.locator.Locate(ctx, req.ResolveOptions())
	if err != nil {
		return err
	}

	best, ok := model.PickBest(resolution.Candidates)
	if !ok {
		return model.ErrNoCandidate
	}

	s.tasksMutex.Lock()
	task.Media = best
	task.UserAgent = resolution.UserAgent
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)

	s.logLine(fmt.Sprintf("Picked: %s len=%d status=%d", best.Kind, best.ContentLength, best.Status))

	headers := map[string]string{
		"User-Agent": resolution.UserAgent,
		"Referer":    req.PostURL,
	}

	if best.Kind == model.MediaKindM3U8 {
		s.setStatus(task, model.TaskStatusMuxing)
		return s.muxer.Mux(ctx, best.URL, task.OutputPath, headers, s.fractionProgress(task))
	}

	s.setStatus(task, model.TaskStatusDownloading)
	return Download(ctx, s.client, best.URL, task.OutputPath, headers, s.byteProgress(task))
}

// byteProgress converts raw byte counts into task progress fields, throttled
// so the UI is not flooded. Terminal stage messages always pass through.
func (s *Service) byteProgress(task *model.DownloadTask) ProgressFunc {
	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)
	start := time.Now()

	return func(done, total int64, stage string) {
		final := stage != "Downloading" || (total > 0 && done >= total)
		if !final && !limiter.Allow() {
			return
		}

		s.tasksMutex.Lock()
		task.Downloaded = done
		task.TotalBytes = total
		if total > 0 {
			task.Progress = float64(done) / float64(total)
			task.Percent = int(task.Progress * 100)
		}

		elapsed := time.Since(start).Seconds()
		if elapsed > 0 && done > 0 {
			bytesPerSecond := float64(done) / elapsed
			task.Speed = fmt.Sprintf("%.1fMB/s", bytesPerSecond/1024/1024)
			if total > 0 && bytesPerSecond > 0 {
				task.ETASec = int(float64(total-done) / bytesPerSecond)
			}
		}
		s.tasksMutex.Unlock()

		s.notifyUpdate(task)
	}
}

// fractionProgress adapts the muxer's 0..1 progress to task fields
func (s *Service) fractionProgress(task *model.DownloadTask) func(float64) {
	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)

	return func(fraction float64) {
		if fraction < 1.0 && !limiter.Allow() {
			return
		}

		s.tasksMutex.Lock()
		task.Progress = fraction
		task.Percent = int(fraction * 100)
		s.tasksMutex.Unlock()

		s.notifyUpdate(task)
	}
}

func (s *Service) setStatus(task *model.DownloadTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// startNextPendingTask starts the next pending task if we have capacity
func (s *Service) startNextPendingTask() {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	if s.activeCount >= maxActiveTasks {
		return
	}

	for _, task := range s.tasks {
		if task.Status == model.TaskStatusPending {
			go s.startTask(task, s.requests[task.ID])
			return
		}
	}
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.DownloadTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

func (s *Service) logLine(msg string) {
	s.log.Info(msg)
	if s.onLog != nil {
		s.onLog(msg)
	}
}

// generateTaskID generates a unique task ID using UUID v7 for better
// uniqueness and time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(taskIDPrefix+"%d", time.Now().UnixNano())
	}
	return taskIDPrefix + id.String()
}
