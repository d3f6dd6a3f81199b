package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"wedding-appgen/internal/config"
	"wedding-appgen/internal/generator"
	"wedding-appgen/internal/storage"
	"wedding-appgen/templates"
)

var (
	configPath string
	logLevel   string
	pretty     bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "appgen",
	Short: "Wedding app generator",
	Long: `appgen turns a wedding questionnaire into a customized Flutter
project and delivers it as a zip archive.

It can run as an HTTP service for the questionnaire front end, or
generate a single app from a JSON file on disk.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		level, err := zerolog.ParseLevel(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("%w: log level %q", config.ErrInvalidConfig, loaded.LogLevel)
		}
		cfg = loaded
		logger = newLogger(level)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default $APPGEN_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human readable console logs")

	rootCmd.AddCommand(serveCmd, generateCmd, jobsCmd)
}

func newLogger(level zerolog.Level) zerolog.Logger {
	out := zerolog.New(os.Stderr)
	if pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	return out.Level(level).With().Timestamp().Logger()
}

// templateFS returns the configured template project, or the embedded one.
func templateFS() (fs.FS, error) {
	if cfg.TemplateDir == "" {
		return templates.Flutter(), nil
	}
	info, err := os.Stat(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("template dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: template dir %s is not a directory", config.ErrInvalidConfig, cfg.TemplateDir)
	}
	return os.DirFS(cfg.TemplateDir), nil
}

func openLedger() (*storage.Storage, error) {
	return storage.NewStorage(filepath.Join(cfg.DataDir, "jobs.db"))
}

func newGenerator(outputDir string, ledger *storage.Storage) (*generator.Generator, error) {
	tmpl, err := templateFS()
	if err != nil {
		return nil, err
	}
	opts := []generator.Option{
		generator.WithLogger(logger.With().Str("component", "Generator").Logger()),
	}
	if ledger != nil {
		opts = append(opts, generator.WithRecorder(ledger))
	}
	return generator.New(generator.Config{
		Template:  tmpl,
		OutputDir: outputDir,
		Exclude:   cfg.Exclude,
		Workers:   cfg.Workers,
	}, opts...)
}
