package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ttscraper/internal/downloader"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/scraper"
	"ttscraper/pkg/tiktok"
	"ttscraper/pkg/ui"
)

var (
	// Scrape command flags
	outputDir       string
	concurrent      int
	headless        bool
	stabilityWindow int
	maxScrolls      int
	profileLang     string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <username> [username...]",
	Short: "Download the videos of TikTok profiles",
	Long: `Open each profile page in a headless browser, scroll until the page stops
growing and download every video seen on the way.

Videos are stored as <output>/<username>/<video id>.<format>. Files already on
disk are never downloaded again, so an interrupted run can simply be repeated.`,
	Example: `  # Download a profile with default settings
  ttscraper scrape some_user

  # Several profiles, custom directory and more parallel downloads
  ttscraper scrape alice bob --output ./videos --concurrent 8

  # Stop scrolling after 2000 steps even if the page keeps growing
  ttscraper scrape some_user --max-scrolls 2000`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVarP(&outputDir, "output", "o", "", "base directory for downloads (default: downloaded_videos)")
	scrapeCmd.Flags().IntVar(&concurrent, "concurrent", 4, "number of concurrent downloads")
	scrapeCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	scrapeCmd.Flags().IntVar(&stabilityWindow, "stability-window", 200, "identical scroll offsets in a row that end scrolling")
	scrapeCmd.Flags().IntVar(&maxScrolls, "max-scrolls", 0, "maximum scroll steps per profile (0 = unlimited)")
	scrapeCmd.Flags().StringVar(&profileLang, "lang", "", "lang query parameter of the profile page")
}

func scrapeFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("output") {
		flags["output"] = outputDir
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent"] = concurrent
	}
	if cmd.Flags().Changed("headless") {
		flags["headless"] = headless
	}
	if cmd.Flags().Changed("stability-window") {
		flags["stability-window"] = stabilityWindow
	}
	if cmd.Flags().Changed("max-scrolls") {
		flags["max-scrolls"] = maxScrolls
	}
	if cmd.Flags().Changed("lang") {
		flags["lang"] = profileLang
	}
	return flags
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, scrapeFlags(cmd))
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintLogo()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger()
	client := tiktok.NewClient(tiktok.NewIdentity(cfg.Client), cfg.Comments.RequestTimeout, cfg.Download.DownloadTimeout, log)

	var notices downloader.Notifier = ui.NewConsoleNotices(nil)
	if quiet {
		notices = ui.NewConsoleNotices(io.Discard)
	}

	s, err := scraper.New(cfg, scraper.ChromeDriverFactory(cfg, log), client, notices, log)
	if err != nil {
		return fmt.Errorf("failed to initialize scraper: %w", err)
	}

	var failed []string
	for _, username := range args {
		ui.PrintInfo("Target Profile", username)

		summary, err := s.HarvestProfile(ctx, username)
		printSummary(summary)
		if err != nil {
			logger.WithError(err).WithField("username", username).Error("Harvest failed")
			ui.PrintError("HARVEST FAILED", err)
			failed = append(failed, username)
		}

		if ctx.Err() != nil {
			ui.PrintWarning("Interrupted, remaining profiles skipped")
			return ctx.Err()
		}
	}

	totals := s.Totals()
	log.InfoWithFields("All harvests finished", map[string]interface{}{
		"profiles":        len(args),
		"failed_profiles": len(failed),
		"downloaded":      totals[downloader.OutcomeDownloaded],
		"already_present": totals[downloader.OutcomeAlreadyPresent],
		"failed":          totals[downloader.OutcomeFailed],
	})

	if len(failed) > 0 {
		return fmt.Errorf("%d of %d profiles failed", len(failed), len(args))
	}
	ui.PrintSuccess("[HARVEST COMPLETED]")
	return nil
}

func printSummary(s scraper.Summary) {
	if s.SessionID == "" || quiet {
		return
	}
	ui.PrintInfo("Items seen", fmt.Sprint(s.Items))
	ui.PrintInfo("Downloaded", fmt.Sprint(s.Downloaded))
	ui.PrintInfo("Already on disk", fmt.Sprint(s.AlreadyPresent))
	ui.PrintInfo("Files in folder", fmt.Sprint(s.FilesOnDisk))
	if s.Failed > 0 {
		ui.PrintWarning("Failed downloads", s.Failed)
	}
	if !s.Settled && s.ScrollIterations > 0 {
		ui.PrintWarning("Page did not settle", fmt.Sprintf("stopped after %d scroll steps", s.ScrollIterations))
	}
}
