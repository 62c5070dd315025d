package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yourusername/manga-dl-go/internal/domain"
	"github.com/yourusername/manga-dl-go/pkg/logger"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past episode downloads",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		if status != "" && !domain.ValidateStatus(domain.DownloadStatus(status)) {
			fail(fmt.Errorf("invalid status %q", status))
		}

		e := setup()
		defer e.Close()

		records, err := e.components.History.FindAll(domain.DownloadStatus(status), limit)
		if err != nil {
			fail(err)
		}
		stats, err := e.components.History.GetStats()
		if err != nil {
			fail(err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"When", "Manga", "Archive", "Status", "Pages", "Size"})
		for _, r := range records {
			state := string(r.Status)
			if r.Status == domain.StatusFailed && r.Stage != "" {
				state += " (" + string(r.Stage) + ")"
			}
			size := ""
			if r.Bytes > 0 {
				size = humanize.Bytes(uint64(r.Bytes))
			}
			t.AppendRow(table.Row{
				humanize.Time(r.CreatedAt),
				truncate(r.MangaTitle, 30),
				truncate(r.ArchiveName, 40),
				state,
				fmt.Sprintf("%d/%d", r.Completed, r.Pages),
				size,
			})
		}
		t.AppendFooter(table.Row{
			fmt.Sprintf("total %d", stats.Total),
			fmt.Sprintf("completed %d", stats.Completed),
			fmt.Sprintf("failed %d", stats.Failed),
			fmt.Sprintf("running %d", stats.Processing+stats.Queued),
			"",
			humanize.Bytes(uint64(stats.Bytes)),
		})
		t.Render()
	},
}

var logsCmd = &cobra.Command{
	Use:   "logs [category]",
	Short: "Show batch or error logs of a day",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		category := logger.LogCategory(args[0])
		if !logger.ValidCategory(category) {
			fail(fmt.Errorf("unknown log category %q (want one of %v)", category, logger.Categories))
		}

		query, _ := cmd.Flags().GetString("search")
		dateStr, _ := cmd.Flags().GetString("date")
		limit, _ := cmd.Flags().GetInt("limit")

		date := time.Now()
		if dateStr != "" {
			parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			if err != nil {
				fail(fmt.Errorf("invalid date %q, expected YYYY-MM-DD", dateStr))
			}
			date = parsed
		}

		config := loadConfigOnly()
		reader := logger.NewLogReader(config.Logging.LogsDir)

		var entries []logger.LogEntry
		var err error
		if query != "" {
			entries, err = reader.SearchLogs(category, date, query, limit)
		} else {
			entries, err = reader.ReadLogs(category, date, limit)
		}
		if err != nil {
			fail(err)
		}

		for _, entry := range entries {
			fmt.Println(formatLogEntry(entry))
		}
	},
}

func init() {
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (queued, processing, completed, failed)")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of records")

	logsCmd.Flags().StringP("search", "q", "", "Only entries containing this text")
	logsCmd.Flags().StringP("date", "d", "", "Day to read (YYYY-MM-DD, default today)")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
}

func formatLogEntry(entry logger.LogEntry) string {
	line := fmt.Sprintf("%s %-5s %s", entry.Timestamp, entry.Level, entry.Message)
	for _, key := range sortedKeys(entry.Fields) {
		line += fmt.Sprintf(" %s=%v", key, entry.Fields[key])
	}
	return line
}

func sortedKeys(fields map[string]interface{}) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
