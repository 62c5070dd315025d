package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/yourusername/manga-dl-go/internal/app"
)

var downloadCmd = &cobra.Command{
	Use:   "download [manga_id]",
	Short: "Download episodes of a manga into zip archives",
	Long: `Download the selected episodes of a manga. Select by catalog position
(--episodes "1,3,5-8" or "all"), by ord (--ord 6.5) or by episode id (--ids).
Locked episodes are skipped unless --include-locked is set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id := parseMangaID(args[0])
		expr, _ := cmd.Flags().GetString("episodes")
		ords, _ := cmd.Flags().GetFloat64Slice("ord")
		ids, _ := cmd.Flags().GetInt64Slice("ids")
		noProgress, _ := cmd.Flags().GetBool("no-progress")

		e := setup()
		defer e.Close()
		ctx := cmd.Context()

		sel := app.Selection{Expr: expr, Ords: ords, IDs: ids, IncludeLocked: !e.config.Download.SkipLocked}
		if cmd.Flags().Changed("include-locked") {
			sel.IncludeLocked, _ = cmd.Flags().GetBool("include-locked")
		}
		if sel.Empty() {
			fail(fmt.Errorf("select episodes with --episodes, --ord or --ids"))
		}

		valid, err := e.components.Client.ValidateCredential(ctx, e.config.API.Cookie)
		switch {
		case err != nil:
			fmt.Fprintf(os.Stderr, "Warning: could not check credential: %v\n", err)
		case !valid:
			fmt.Fprintln(os.Stderr, "Warning: not logged in, only free episodes will download (set api.cookie)")
		}

		plan, err := e.components.Batches.Plan(ctx, id, sel)
		if err != nil {
			fail(err)
		}
		for _, ep := range plan.Locked {
			fmt.Fprintf(os.Stderr, "Skipping locked episode %s\n", ep.Label())
		}

		fmt.Printf("Downloading %d episode(s) of %s into %s\n", len(plan.Episodes), plan.Manga.Title, plan.DestDir)

		progress := newProgressObserver(len(plan.Episodes), os.Stderr, !noProgress && isTerminal(os.Stderr))
		result, err := e.components.Batches.Execute(ctx, plan, progress)
		progress.Close()
		if err != nil {
			fail(err)
		}

		fmt.Printf("%d/%d episode(s) archived, %s in %s\n",
			result.Succeeded(), len(plan.Episodes),
			humanize.Bytes(uint64(result.Bytes())),
			result.Duration.Round(time.Millisecond))

		if !result.Report.OK() {
			fmt.Fprintln(os.Stderr, "Failed episodes:")
			for _, msg := range result.Report {
				fmt.Fprintf(os.Stderr, "  %s\n", msg)
			}
			e.Close()
			os.Exit(1)
		}
	},
}

func init() {
	downloadCmd.Flags().StringP("episodes", "e", "", `Catalog positions, e.g. "1,3,5-8" or "all"`)
	downloadCmd.Flags().Float64Slice("ord", nil, "Episode ord values, e.g. 6.5")
	downloadCmd.Flags().Int64Slice("ids", nil, "Episode ids")
	downloadCmd.Flags().Bool("include-locked", false, "Also try locked episodes")
	downloadCmd.Flags().Bool("no-progress", false, "Print one line per episode instead of a progress bar")
}
