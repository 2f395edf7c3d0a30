package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"comicshelf/internal/config"
	"comicshelf/internal/service"
)

var Version = "dev"

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "comicshelf",
	Short:   "Comic archive reading tool",
	Version: Version,
	Long: `comicshelf reads CBZ, CBR, CB7 and CBC comic book archives.
It lists pages in natural order, extracts single pages, detects legacy
ZIP filename encodings, and scans whole directories of archives.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML settings file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
}

func loadSettings() (config.Settings, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// newService builds the archive service with logging wired to stderr so
// page bytes on stdout stay clean.
func newService() (*service.Service, config.Settings, error) {
	cfg, err := loadSettings()
	if err != nil {
		return nil, cfg, err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With(slog.String("app", "comicshelf"))
	slog.SetDefault(log)
	return service.New(cfg, log), cfg, nil
}
