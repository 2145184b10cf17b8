package cmd

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/podjisin/tvd/internal/fetch"
	"github.com/podjisin/tvd/internal/mux"
	"github.com/podjisin/tvd/internal/platform"
	"github.com/podjisin/tvd/internal/sniff"
	"github.com/podjisin/tvd/internal/ui"
)

const (
	appID = "com.podjisin.tvd"

	windowWidth  = 820
	windowHeight = 520
)

// runGUI builds the service graph and hands control to Fyne.
func runGUI() error {
	outputDir, err := cfg.ExpandOutputDir()
	if err != nil {
		return err
	}
	if err := platform.CreateDirectoryIfNotExists(outputDir); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	sniffer := sniff.New(log)
	muxer := mux.New(cfg.FFmpegPath, log)
	downloadSvc := fetch.NewService(outputDir, sniffer, muxer, nil, log)

	myApp := app.NewWithID(appID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(ui.WindowTitle)
	myWindow.Resize(fyne.NewSize(windowWidth, windowHeight))

	rootUI := ui.NewRootUI(myWindow, myApp, downloadSvc, sniffer, cfg)
	sniffer.SetLogCallback(rootUI.AppendLog)

	myWindow.ShowAndRun()
	return nil
}
