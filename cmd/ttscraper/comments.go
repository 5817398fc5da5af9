package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"ttscraper/pkg/comments"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/scraper"
	"ttscraper/pkg/tiktok"
	"ttscraper/pkg/ui"
)

var (
	commentsFormat string
	commentsOutput string
)

var commentsCmd = &cobra.Command{
	Use:   "comments <video-url|video-id>",
	Short: "Print every comment and reply of a video",
	Long: `Page through all top-level comments of a video and, for each comment with
replies, through its replies. Records are written in order, every reply right
after the comment it answers.

With --format jsonl each record is one JSON object per line and stdout carries
nothing else; notices go to stderr.`,
	Example: `  ttscraper comments https://www.tiktok.com/@some_user/video/7100000000000000000
  ttscraper comments 7100000000000000000 --format jsonl --output comments.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runComments,
}

func init() {
	rootCmd.AddCommand(commentsCmd)

	commentsCmd.Flags().StringVarP(&commentsFormat, "format", "f", comments.FormatText, "output format (text, jsonl)")
	commentsCmd.Flags().StringVarP(&commentsOutput, "output", "o", "", "write records to this file instead of stdout")
}

func runComments(cmd *cobra.Command, args []string) error {
	format := strings.ToLower(commentsFormat)
	if commentsOutput == "" && format == comments.FormatJSONL {
		ui.Output = os.Stderr
	}

	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	printText := ui.PrintComment
	if commentsOutput != "" {
		printText = ui.PrintCommentPlain
		f, err := os.Create(commentsOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)
	defer w.Flush()

	sink, err := comments.NewSink(format, w, printText)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetLogger()
	client := tiktok.NewClient(tiktok.NewIdentity(cfg.Client), cfg.Comments.RequestTimeout, cfg.Download.DownloadTimeout, log)

	stats, err := scraper.HarvestComments(ctx, client, args[0], cfg.Comments, sink, log)
	if flushErr := w.Flush(); flushErr != nil && err == nil {
		err = fmt.Errorf("failed to write records: %w", flushErr)
	}
	if err != nil {
		return err
	}

	if !quiet {
		ui.PrintInfo("Comments", fmt.Sprint(stats.Comments))
		ui.PrintInfo("Replies", fmt.Sprint(stats.Replies))
		if commentsOutput != "" {
			ui.PrintSuccess("Written to " + commentsOutput)
		}
	}
	return nil
}
