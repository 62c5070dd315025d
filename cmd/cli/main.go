package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yourusername/manga-dl-go/internal/app"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/pkg/logger"
)

var (
	configFile string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "manga-dl",
		Short: "manga-dl - archive manga episodes as zip files",
		Long:  `A command-line tool that searches the manga catalog and downloads episodes, one zip archive per episode.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default $HOME/.manga-dl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warnings only")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(episodesCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

// env is what every command needs: config, loggers and the wired components
type env struct {
	config     *domain.Config
	multiLog   *logger.MultiLogger
	logs       *logger.LoggerAdapter
	components *app.Components
}

// loadConfigOnly loads the configuration for commands that touch no components
func loadConfigOnly() *domain.Config {
	config, err := app.LoadConfig(configFile)
	if err != nil {
		fail(err)
	}
	return config
}

// setup loads the configuration and wires the components; it exits on failure
func setup() *env {
	config := loadConfigOnly()

	// Progress bars share stderr with the console logger
	level := "warn"
	if verbose {
		level = config.Logging.Level
	}
	console, err := logger.New(logger.Config{
		Level:      level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		fail(fmt.Errorf("failed to initialize logger: %w", err))
	}

	multiLog, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Logging.LogsDir,
	})
	if err != nil {
		fail(fmt.Errorf("failed to initialize logger: %w", err))
	}

	logs := logger.NewLoggerAdapter(console, multiLog)
	components, err := app.NewComponents(config, logs)
	if err != nil {
		multiLog.Close()
		fail(err)
	}

	return &env{
		config:     config,
		multiLog:   multiLog,
		logs:       logs,
		components: components,
	}
}

func (e *env) Close() {
	e.components.Close()
	e.logs.Sync()
	e.multiLog.Close()
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func parseMangaID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fail(fmt.Errorf("invalid manga id %q", arg))
	}
	return id
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
