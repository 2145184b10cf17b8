package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/podjisin/tvd/internal/config"
	"github.com/podjisin/tvd/internal/fetch"
	"github.com/podjisin/tvd/internal/httputil"
	"github.com/podjisin/tvd/internal/model"
	"github.com/podjisin/tvd/internal/platform"
)

// UI constants
const (
	WindowTitle = "Threads Video Downloader"

	// maxLogLines caps the log panel so long sessions don't grow unbounded.
	maxLogLines = 500
)

// RootUI represents the main UI structure
type RootUI struct {
	window fyne.Window

	urlEntry     *widget.Entry
	outEntry     *widget.Entry
	headfulCheck *widget.Check
	timeoutEntry *widget.Entry

	downloadBtn *widget.Button
	sniffBtn    *widget.Button
	stopBtn     *widget.Button
	revealBtn   *widget.Button

	progressBar *widget.ProgressBar
	statusLabel *widget.Label
	logView     *widget.Entry

	downloadSvc *fetch.Service
	locator     fetch.Locator
	cfg         *config.Config

	mu            sync.Mutex
	currentTaskID string
	logLines      []string
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, downloadSvc *fetch.Service, locator fetch.Locator, cfg *config.Config) *RootUI {
	ui := &RootUI{
		window:      window,
		downloadSvc: downloadSvc,
		locator:     locator,
		cfg:         cfg,
	}

	window.SetTitle(WindowTitle)

	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)
	ui.downloadSvc.SetLogCallback(ui.appendLog)

	ui.setupUI()
	return ui
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.urlEntry = widget.NewEntry()
	ui.urlEntry.SetPlaceHolder("https://www.threads.net/@user/post/...")
	ui.urlEntry.Validator = validatePostURL
	ui.urlEntry.OnSubmitted = func(string) {
		ui.onDownloadClick()
	}

	pasteBtn := widget.NewButton("Paste", func() {
		if content := ui.window.Clipboard().Content(); content != "" {
			ui.urlEntry.SetText(strings.TrimSpace(content))
		}
	})
	pasteBtn.Importance = widget.LowImportance

	ui.outEntry = widget.NewEntry()
	ui.outEntry.SetPlaceHolder("Output file (auto-named when empty)")

	browseBtn := widget.NewButton("Browse...", ui.onBrowseClick)
	browseBtn.Importance = widget.LowImportance

	ui.headfulCheck = widget.NewCheck("Show browser", nil)
	ui.headfulCheck.SetChecked(ui.cfg.Headful)

	ui.timeoutEntry = widget.NewEntry()
	ui.timeoutEntry.SetText(strconv.Itoa(ui.cfg.TimeoutSeconds))

	ui.downloadBtn = widget.NewButton("Download", ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	ui.sniffBtn = widget.NewButton("Find candidates", ui.onSniffClick)

	ui.stopBtn = widget.NewButton("Stop", ui.onStopClick)
	ui.stopBtn.Disable()

	ui.revealBtn = widget.NewButton("Show in folder", ui.onRevealClick)
	ui.revealBtn.Disable()

	clearBtn := widget.NewButton("Clear log", func() {
		ui.mu.Lock()
		ui.logLines = nil
		ui.mu.Unlock()
		ui.logView.SetText("")
	})
	clearBtn.Importance = widget.LowImportance

	ui.progressBar = widget.NewProgressBar()
	ui.statusLabel = widget.NewLabel("Ready")

	ui.logView = widget.NewMultiLineEntry()
	ui.logView.Wrapping = fyne.TextWrapBreak

	urlRow := container.NewBorder(nil, nil, nil, pasteBtn, ui.urlEntry)
	outRow := container.NewBorder(nil, nil, nil, browseBtn, ui.outEntry)
	optionsRow := container.NewHBox(
		ui.headfulCheck,
		widget.NewLabel("Timeout (s):"),
		ui.timeoutEntry,
	)
	buttonRow := container.NewHBox(ui.downloadBtn, ui.sniffBtn, ui.stopBtn, ui.revealBtn, clearBtn)

	top := container.NewVBox(
		urlRow,
		outRow,
		optionsRow,
		buttonRow,
		ui.progressBar,
		ui.statusLabel,
	)

	ui.window.SetContent(container.NewBorder(top, nil, nil, nil, ui.logView))
}

// onDownloadClick queues a download for the entered URL
func (ui *RootUI) onDownloadClick() {
	req, err := ui.buildRequest()
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	task, err := ui.downloadSvc.AddTask(req)
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	ui.mu.Lock()
	ui.currentTaskID = task.ID
	ui.mu.Unlock()

	ui.downloadBtn.Disable()
	ui.sniffBtn.Disable()
	ui.stopBtn.Enable()
	ui.revealBtn.Disable()
	ui.progressBar.SetValue(0)
	ui.statusLabel.SetText("Queued")
}

// onSniffClick resolves candidates without downloading and lists them in the log
func (ui *RootUI) onSniffClick() {
	req, err := ui.buildRequest()
	if err != nil {
		dialog.ShowError(err, ui.window)
		return
	}

	ui.sniffBtn.Disable()
	ui.downloadBtn.Disable()
	ui.statusLabel.SetText("Sniffing...")

	go func() {
		resolution, err := ui.locator.Locate(context.Background(), req.ResolveOptions())

		fyne.Do(func() {
			ui.sniffBtn.Enable()
			ui.downloadBtn.Enable()

			if err != nil {
				ui.statusLabel.SetText(fmt.Sprintf("Error: %v", err))
				return
			}

			ui.statusLabel.SetText(fmt.Sprintf("Found %d candidate(s)", len(resolution.Candidates)))
		})

		if err != nil {
			ui.appendLog(fmt.Sprintf("ERROR: %v", err))
			return
		}
		for _, cand := range resolution.Candidates {
			ui.appendLog(fmt.Sprintf("%s len=%d status=%d %s", cand.Kind, cand.ContentLength, cand.Status, cand.URL))
		}
	}()
}

func (ui *RootUI) onStopClick() {
	ui.mu.Lock()
	id := ui.currentTaskID
	ui.mu.Unlock()

	if id == "" {
		return
	}
	if err := ui.downloadSvc.StopTask(id); err != nil {
		dialog.ShowError(err, ui.window)
	}
}

func (ui *RootUI) onRevealClick() {
	ui.mu.Lock()
	id := ui.currentTaskID
	ui.mu.Unlock()

	task, ok := ui.downloadSvc.GetTask(id)
	if !ok || task.OutputPath == "" {
		return
	}
	if err := platform.OpenFileInManager(task.OutputPath); err != nil {
		dialog.ShowError(err, ui.window)
	}
}

func (ui *RootUI) onBrowseClick() {
	dialog.ShowFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()
		ui.outEntry.SetText(writer.URI().Path())
	}, ui.window)
}

// buildRequest validates the form and turns it into a download request
func (ui *RootUI) buildRequest() (model.DownloadRequest, error) {
	postURL := strings.TrimSpace(ui.urlEntry.Text)
	if err := httputil.ValidateURL(postURL); err != nil {
		return model.DownloadRequest{}, err
	}

	timeoutSec := ui.cfg.TimeoutSeconds
	if text := strings.TrimSpace(ui.timeoutEntry.Text); text != "" {
		parsed, err := strconv.Atoi(text)
		if err != nil || parsed < config.MinTimeoutSeconds || parsed > config.MaxTimeoutSeconds {
			return model.DownloadRequest{}, fmt.Errorf("timeout must be %d..%d seconds",
				config.MinTimeoutSeconds, config.MaxTimeoutSeconds)
		}
		timeoutSec = parsed
	}

	return model.DownloadRequest{
		PostURL:     postURL,
		OutputPath:  strings.TrimSpace(ui.outEntry.Text),
		Headful:     ui.headfulCheck.Checked,
		Timeout:     time.Duration(timeoutSec) * time.Second,
		UserDataDir: ui.cfg.UserDataDir,
	}, nil
}

// onTaskUpdate refreshes the progress readout. Called from service goroutines,
// so all widget access goes through fyne.Do.
func (ui *RootUI) onTaskUpdate(task *model.DownloadTask) {
	ui.mu.Lock()
	current := ui.currentTaskID
	ui.mu.Unlock()
	if task.ID != current {
		return
	}

	status := task.Status
	progress := task.Progress
	line := statusLine(task)

	fyne.Do(func() {
		ui.progressBar.SetValue(progress)
		ui.statusLabel.SetText(line)

		if status.IsFinished() {
			ui.downloadBtn.Enable()
			ui.sniffBtn.Enable()
			ui.stopBtn.Disable()
			if status == model.TaskStatusCompleted {
				ui.revealBtn.Enable()
			}
		}
	})
}

// statusLine renders one human-readable line for the current task state
func statusLine(task *model.DownloadTask) string {
	switch task.Status {
	case model.TaskStatusDownloading:
		if task.TotalBytes > 0 {
			return fmt.Sprintf("Downloading %d%% (%s, ETA %s)", task.Percent, task.Speed, task.GetETAString())
		}
		return fmt.Sprintf("Downloading %d bytes", task.Downloaded)
	case model.TaskStatusMuxing:
		return fmt.Sprintf("Muxing %d%%", task.Percent)
	case model.TaskStatusError:
		return fmt.Sprintf("Error: %s", task.LastError)
	case model.TaskStatusCompleted:
		return fmt.Sprintf("Completed: %s", task.OutputPath)
	default:
		return string(task.Status)
	}
}

// AppendLog adds a line to the log panel. Safe to call from any goroutine,
// exported so the sniffer's log callback can feed the same panel.
func (ui *RootUI) AppendLog(line string) {
	ui.appendLog(line)
}

func (ui *RootUI) appendLog(line string) {
	ui.mu.Lock()
	ui.logLines = append(ui.logLines, line)
	if len(ui.logLines) > maxLogLines {
		ui.logLines = ui.logLines[len(ui.logLines)-maxLogLines:]
	}
	text := strings.Join(ui.logLines, "\n")
	ui.mu.Unlock()

	fyne.Do(func() {
		ui.logView.SetText(text)
		ui.logView.CursorRow = len(ui.logLines)
	})
}

func validatePostURL(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil // empty field shows no error until submit
	}
	return httputil.ValidateURL(strings.TrimSpace(text))
}
