// Command reader is a terminal Bhagavad Gita reader. It reads through the
// proxy (or RapidAPI directly as a fallback) and keeps reading history,
// bookmarks and streaks in a local store.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taiwoajasa245/gita-reader-api/internal/fetch"
	"github.com/taiwoajasa245/gita-reader-api/internal/storage"
	"github.com/taiwoajasa245/gita-reader-api/pkg/config"
	"github.com/taiwoajasa245/gita-reader-api/pkg/logger"
)

var (
	// Global flags
	profile  string
	debug    bool
	language string

	log *zap.Logger
	rd  *app
)

var rootCmd = &cobra.Command{
	Use:   "reader",
	Short: "Read the Bhagavad Gita from the terminal",
	Long: `reader fetches chapters and verses from the Gita reader api and keeps
your reading position, history, bookmarks and streak between sessions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		level := cfg.LogLevel
		if debug {
			level = "debug"
		}
		var err error
		log, err = logger.New(cfg.AppEnv, level)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		kv, err := storage.Open(cmd.Context(), cfg, profile)
		if err != nil {
			return fmt.Errorf("failed to open reading history: %w", err)
		}

		rd = newApp(newFetchClient(cfg, log), kv, log)
		rd.store.LoadFromStorage(cmd.Context())
		return nil
	},
}

// newFetchClient builds the fetch client from cfg.Reader. When a fallback
// URL is set the RapidAPI credentials travel with fallback requests only.
func newFetchClient(cfg *config.Config, log *zap.Logger) *fetch.Client {
	opts := fetch.Options{
		PrimaryBaseURL:  cfg.Reader.APIBaseURL,
		FallbackBaseURL: cfg.Reader.FallbackBaseURL,
		Timeout:         cfg.Reader.FetchTimeout,
		RetryCount:      cfg.Reader.RetryCount,
		BackoffBase:     cfg.Reader.BackoffBase,
		Logger:          log.Named("fetch"),
	}
	if opts.FallbackBaseURL != "" {
		opts.FallbackHeaders = http.Header{}
		opts.FallbackHeaders.Set("x-rapidapi-host", cfg.RapidAPIHost)
		opts.FallbackHeaders.Set("x-rapidapi-key", cfg.RapidAPIKey)
	}

	client := fetch.New(opts)
	log.Debug("Fetch client ready",
		zap.String("primary", opts.PrimaryBaseURL),
		zap.Stringer("policy", client.Policy()))
	return client
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&profile, "profile", "p", "default", "Reading profile (separate history per profile)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&language, "lang", "l", "english", "Translation language")

	rootCmd.AddCommand(chaptersCmd)
	rootCmd.AddCommand(chapterCmd)
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(bookmarkCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(continueCmd)

	bookmarkCmd.AddCommand(bookmarkAddCmd)
	bookmarkCmd.AddCommand(bookmarkRemoveCmd)
	bookmarkCmd.AddCommand(bookmarkListCmd)
}

func main() {
	err := rootCmd.Execute()

	if rd != nil {
		if cerr := rd.close(); cerr != nil {
			log.Warn("Failed to close reading history", zap.Error(cerr))
		}
	}
	if log != nil {
		log.Sync()
	}

	if err != nil {
		os.Exit(1)
	}
}
