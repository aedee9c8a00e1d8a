package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/taiwoajasa245/gita-reader-api/internal/gita"
	"github.com/taiwoajasa245/gita-reader-api/internal/history"
)

var (
	chaptersSkip  int
	chaptersLimit int
	readSpent     time.Duration
	clearHistory  bool
	bookmarkNote  string
	showVerses    bool
	confirmReset  bool
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters",
	Short: "List the chapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rd.listChapters(cmd.Context(), cmd.OutOrStdout(), chaptersSkip, chaptersLimit)
	},
}

var chapterCmd = &cobra.Command{
	Use:   "chapter <id>",
	Short: "Show a chapter summary and your progress in it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := positiveArg("chapter", args[0])
		if err != nil {
			return err
		}
		if err := rd.showChapter(cmd.Context(), cmd.OutOrStdout(), id); err != nil {
			return err
		}
		if showVerses {
			fmt.Fprintln(cmd.OutOrStdout())
			return rd.listVerses(cmd.Context(), cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <chapter> <verse>",
	Short: "Read a verse and record it in your history",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, verse, err := verseArgs(args)
		if err != nil {
			return err
		}
		return rd.readVerse(cmd.Context(), cmd.OutOrStdout(), chapter, verse, language, readSpent)
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently read verses",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if clearHistory {
			rd.clearHistory(cmd.Context(), cmd.OutOrStdout())
			return
		}
		rd.showHistory(cmd.OutOrStdout())
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget position, history, bookmarks and stats for this profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !confirmReset {
			return fmt.Errorf("reset removes all reading data for profile %q; rerun with --yes", profile)
		}
		rd.reset(cmd.Context(), cmd.OutOrStdout())
		return nil
	},
}

var bookmarkCmd = &cobra.Command{
	Use:   "bookmark",
	Short: "Manage bookmarks",
}

var bookmarkAddCmd = &cobra.Command{
	Use:   "add <chapter> <verse>",
	Short: "Bookmark a verse",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chapter, verse, err := verseArgs(args)
		if err != nil {
			return err
		}
		return rd.addBookmark(cmd.Context(), cmd.OutOrStdout(), chapter, verse, language, bookmarkNote)
	},
}

var bookmarkRemoveCmd = &cobra.Command{
	Use:   "remove <chapter-verse>",
	Short: "Remove a bookmark, e.g. reader bookmark remove 2-47",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := history.ParseVerseKey(args[0])
		if err != nil {
			return err
		}
		rd.removeBookmark(cmd.Context(), cmd.OutOrStdout(), key.String())
		return nil
	},
}

var bookmarkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bookmarks, newest first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rd.listBookmarks(cmd.OutOrStdout())
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show reading statistics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rd.showStats(cmd.OutOrStdout())
	},
}

var continueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Show where you left off",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rd.continueReading(cmd.OutOrStdout())
	},
}

func init() {
	chaptersCmd.Flags().IntVar(&chaptersSkip, "skip", 0, "Chapters to skip")
	chaptersCmd.Flags().IntVar(&chaptersLimit, "limit", gita.DefaultChapterLimit, "Maximum chapters to list")
	chapterCmd.Flags().BoolVar(&showVerses, "verses", false, "Also list the chapter's verses")
	readCmd.Flags().DurationVar(&readSpent, "spent", 0, "Time spent on the verse (default: estimated from its length)")
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "Clear the reading history")
	resetCmd.Flags().BoolVar(&confirmReset, "yes", false, "Confirm the reset")
	bookmarkAddCmd.Flags().StringVar(&bookmarkNote, "note", "", "Note to keep with the bookmark")
}

func positiveArg(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", name, raw)
	}
	return n, nil
}

func verseArgs(args []string) (int, int, error) {
	chapter, err := positiveArg("chapter", args[0])
	if err != nil {
		return 0, 0, err
	}
	verse, err := positiveArg("verse", args[1])
	if err != nil {
		return 0, 0, err
	}
	return chapter, verse, nil
}
