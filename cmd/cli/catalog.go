package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/yourusername/manga-dl-go/internal/domain"
)

var searchCmd = &cobra.Command{
	Use:   "search [keyword]",
	Short: "Search the catalog by title",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := setup()
		defer e.Close()

		results, err := e.components.Client.Search(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			fail(err)
		}
		if len(results) == 0 {
			fmt.Println("No manga found")
			return
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "ID", "Title"})
		for i, manga := range results {
			t.AppendRow(table.Row{i + 1, manga.ID, manga.Title})
		}
		t.Render()
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes [manga_id]",
	Short: "List the episodes of a manga, one page at a time",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseMangaID(args[0])
		page, _ := cmd.Flags().GetInt("page")

		e := setup()
		defer e.Close()

		manga, err := e.components.Client.Manga(cmd.Context(), id)
		if err != nil {
			fail(err)
		}
		episodes, err := e.components.Client.Episodes(cmd.Context(), id)
		if err != nil {
			fail(err)
		}

		start, end, pages := pageBounds(len(episodes), e.config.Download.PageSize, page)
		if start < 0 {
			fail(fmt.Errorf("page %d out of range (1-%d)", page, pages))
		}

		fmt.Printf("%s (%d episodes)\n", manga.Title, len(episodes))
		t := newTable()
		t.AppendHeader(table.Row{"#", "Ord", "Title", "Locked"})
		for i := start; i < end; i++ {
			ep := episodes[i]
			locked := ""
			if ep.Locked {
				locked = "yes"
			}
			t.AppendRow(table.Row{i + 1, domain.FormatOrd(ep.Ord), truncate(ep.Title, 50), locked})
		}
		t.AppendFooter(table.Row{"", "", fmt.Sprintf("page %d/%d", page, pages), ""})
		t.Render()
	},
}

func init() {
	episodesCmd.Flags().IntP("page", "p", 1, "Page to show")
}

// pageBounds returns the [start, end) slice of page (1-based) and the page
// count. start is -1 when page is out of range.
func pageBounds(total, size, page int) (int, int, int) {
	if size < 1 {
		size = total
	}
	pages := 1
	if total > 0 && size > 0 {
		pages = (total + size - 1) / size
	}
	if page < 1 || page > pages {
		return -1, -1, pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return start, end, pages
}
