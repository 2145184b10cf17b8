// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/podjisin/tvd/internal/config"
	"github.com/podjisin/tvd/internal/fetch"
	"github.com/podjisin/tvd/internal/httputil"
	"github.com/podjisin/tvd/internal/model"
	"github.com/podjisin/tvd/internal/mux"
	"github.com/podjisin/tvd/internal/platform"
	"github.com/podjisin/tvd/internal/sniff"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes for scripting against the CLI.
const (
	exitNoMedia     = 2
	exitNoCandidate = 3
)

// Global flags
var (
	flagOut         string
	flagGUI         bool
	flagHeadful     bool
	flagTimeout     int
	flagUserDataDir string
	flagDump        bool
	flagDebug       bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "tvd [post-url]",
	Short: "Download videos from public Threads posts",
	Long: `tvd opens a Threads post in a browser session, sniffs out the video
resource behind it, and downloads it. Direct MP4s are fetched over HTTP with
resume support; HLS playlists are handed to ffmpeg.

Run with no arguments (or --gui) to open the desktop interface.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	RunE:              rootRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagOut, "out", "o", "", "Output file path (default: <post-id>.mp4 in the output dir)")
	rootCmd.PersistentFlags().BoolVar(&flagGUI, "gui", false, "Open the desktop interface")
	rootCmd.PersistentFlags().BoolVar(&flagHeadful, "headful", false, "Show the browser window while sniffing")
	rootCmd.PersistentFlags().IntVar(&flagTimeout, "timeout", 0, "Seconds to wait for media responses")
	rootCmd.PersistentFlags().StringVar(&flagUserDataDir, "user-data-dir", "", "Browser profile directory to reuse")
	rootCmd.PersistentFlags().BoolVar(&flagDump, "dump", false, "Print discovered candidates as JSON and exit")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagHeadful {
		cfg.Headful = true
	}
	if flagTimeout > 0 {
		cfg.TimeoutSeconds = flagTimeout
	}
	if flagUserDataDir != "" {
		cfg.UserDataDir = flagUserDataDir
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.SetOutput(os.Stderr)
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return nil
}

func rootRun(cmd *cobra.Command, args []string) error {
	if flagGUI || len(args) == 0 {
		return runGUI()
	}
	return runDownload(cmd.Context(), args[0])
}

// runDownload drives the full resolve-pick-fetch pipeline for one URL.
func runDownload(ctx context.Context, postURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := httputil.ValidateURL(postURL); err != nil {
		return err
	}

	resolveReq := model.ResolveRequest{
		PostURL:     postURL,
		Headful:     cfg.Headful,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		UserDataDir: cfg.UserDataDir,
	}

	sniffer := sniff.New(log)
	resolution, err := sniffer.Locate(ctx, resolveReq)
	if err != nil {
		if errors.Is(err, model.ErrNoMedia) || errors.Is(err, model.ErrRestrictedPost) {
			fmt.Fprintf(os.Stderr, "tvd: %v\n", err)
			os.Exit(exitNoMedia)
		}
		return err
	}

	if flagDump {
		return dumpCandidates(resolution.Candidates)
	}

	best, ok := model.PickBest(resolution.Candidates)
	if !ok {
		fmt.Fprintln(os.Stderr, "tvd: no usable candidate among discovered URLs")
		os.Exit(exitNoCandidate)
	}

	outputPath, err := resolveOutputPath(postURL)
	if err != nil {
		return err
	}

	headers := map[string]string{
		"User-Agent": resolution.UserAgent,
		"Referer":    postURL,
	}

	log.WithFields(logrus.Fields{
		"kind": best.Kind,
		"out":  outputPath,
	}).Info("fetching best candidate")

	if best.Kind == model.MediaKindM3U8 {
		muxer := mux.New(cfg.FFmpegPath, log)
		err = muxer.Mux(ctx, best.URL, outputPath, headers, cliFractionProgress())
	} else {
		err = fetch.Download(ctx, httputil.NewClient(), best.URL, outputPath, headers, cliByteProgress())
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nSaved: %s\n", outputPath)
	return nil
}

// resolveOutputPath applies -o when given, otherwise derives a name from the
// post URL inside the configured output directory.
func resolveOutputPath(postURL string) (string, error) {
	if flagOut != "" {
		return flagOut, nil
	}

	outputDir, err := cfg.ExpandOutputDir()
	if err != nil {
		return "", err
	}
	if err := platform.CreateDirectoryIfNotExists(outputDir); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	return httputil.SafeDownloadPath(outputDir, httputil.DefaultOutputName(postURL)+".mp4")
}

func dumpCandidates(candidates []model.MediaCandidate) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(candidates)
}

// cliByteProgress renders a single-line progress readout on stderr.
func cliByteProgress() fetch.ProgressFunc {
	var lastPrint time.Time
	return func(done, total int64, stage string) {
		final := stage != "Downloading"
		if !final && time.Since(lastPrint) < 200*time.Millisecond {
			return
		}
		lastPrint = time.Now()

		if total > 0 {
			fmt.Fprintf(os.Stderr, "\r%s: %.1f%% (%d/%d bytes)   ", stage, float64(done)/float64(total)*100, done, total)
		} else {
			fmt.Fprintf(os.Stderr, "\r%s: %d bytes   ", stage, done)
		}
	}
}

func cliFractionProgress() func(float64) {
	var lastPrint time.Time
	return func(fraction float64) {
		if fraction < 1.0 && time.Since(lastPrint) < 200*time.Millisecond {
			return
		}
		lastPrint = time.Now()
		fmt.Fprintf(os.Stderr, "\rMuxing: %.1f%%   ", fraction*100)
	}
}
