package scraper

import (
	"context"
	"fmt"
	"time"

	"ttscraper/pkg/comments"
	"ttscraper/pkg/config"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/tiktok"
)

// HarvestComments resolves videoRef, a video URL or bare ID, and streams its
// comments with their replies into sink in depth-first order.
func HarvestComments(ctx context.Context, transport comments.Transport, videoRef string, cfg config.CommentsConfig, sink comments.Sink, log logger.Logger) (comments.Stats, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	videoID, err := tiktok.ExtractVideoID(videoRef)
	if err != nil {
		return comments.Stats{}, err
	}

	start := time.Now()
	logger.LogComponentStart(log, "comments", map[string]interface{}{
		"video_id":        videoID,
		"page_size":       cfg.PageSize,
		"reply_page_size": cfg.ReplyPageSize,
	})

	h := comments.NewHarvester(transport, videoID, cfg.PageSize, cfg.ReplyPageSize, log)
	runErr := h.Run(ctx, sink)
	stats := h.Stats()

	fields := map[string]interface{}{
		"video_id":    videoID,
		"comments":    stats.Comments,
		"replies":     stats.Replies,
		"pages":       stats.Pages,
		"reply_pages": stats.ReplyPages,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		log.WithError(runErr).ErrorWithFields("Comment harvest aborted", fields)
		logger.LogComponentStop(log, "comments", "error")
		return stats, fmt.Errorf("harvest comments of %s: %w", videoID, runErr)
	}

	log.InfoWithFields("Comment harvest finished", fields)
	logger.LogComponentStop(log, "comments", "completed")
	return stats, nil
}
