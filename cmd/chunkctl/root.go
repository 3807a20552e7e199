package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/elfkit/chunk/image"
	"github.com/joshuapare/elfkit/cmd/chunkctl/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	noColor bool
	logDir  string
	logKeep time.Duration
	debug   bool

	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "chunkctl",
	Short: "Inspect and patch binary images as chunk trees",
	Long: `chunkctl opens a binary image, overlays it with chunks covering
byte ranges of the file and prints or patches them. Writes go either to a new
file or, with --in-place, straight into the mapped original.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		return logger.Init(logger.Options{
			Enabled:   logDir != "" || debug,
			LogDir:    logDir,
			Level:     level,
			Retention: logKeep,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().
		StringVar(&logDir, "log-dir", "", `Write JSON logs to this directory ("-" for text on stderr)`)
	rootCmd.PersistentFlags().DurationVar(&logKeep, "log-retention", logger.DefaultRetention,
		"Remove log files older than this (negative keeps all)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log at debug level")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v\n", err)
		os.Exit(1)
	}
}

// openImage opens path with the command logger attached.
func openImage(path string, writable bool) (*image.Image, error) {
	printVerbose("Opening image: %s\n", path)
	im, err := image.Open(path, image.OpenOptions{
		Writable: writable,
		Logger:   logger.L.With("image", path),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return im, nil
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printError prints an error message
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format, args...)
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
