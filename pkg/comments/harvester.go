package comments

import (
	"context"
	"fmt"

	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
)

const (
	DefaultPageSize      = 50
	DefaultReplyPageSize = 20
)

// Transport fetches single pages of the comment API
type Transport interface {
	FetchComments(ctx context.Context, videoID string, cursor, count int) (models.CommentPage, error)
	FetchReplies(ctx context.Context, videoID, commentID string, cursor, count int) (models.CommentPage, error)
}

// Sink receives harvested records in output order. Returning an error stops the harvest.
type Sink func(models.CommentRecord) error

// Stats counts what a harvest produced
type Stats struct {
	Comments    int
	Replies     int
	Pages       int
	ReplyPages  int
	ReplyChains int
}

// Harvester walks all comments of one video and, for each comment that has
// replies, all of its replies. Replies of replies are not fetched.
type Harvester struct {
	transport     Transport
	videoID       string
	pageSize      int
	replyPageSize int
	logger        logger.Logger
	stats         Stats
}

// NewHarvester creates a harvester. Non-positive page sizes fall back to the defaults.
func NewHarvester(transport Transport, videoID string, pageSize, replyPageSize int, log logger.Logger) *Harvester {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if replyPageSize <= 0 {
		replyPageSize = DefaultReplyPageSize
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Harvester{
		transport:     transport,
		videoID:       videoID,
		pageSize:      pageSize,
		replyPageSize: replyPageSize,
		logger:        log.WithFields(map[string]interface{}{"component": "comments", "video_id": videoID}),
	}
}

// Comments returns a fresh iterator over the top-level comments
func (h *Harvester) Comments() *CommentIterator {
	return &CommentIterator{p: pager{
		pageSize: h.pageSize,
		fetch: func(ctx context.Context, cursor, count int) (models.CommentPage, error) {
			return h.transport.FetchComments(ctx, h.videoID, cursor, count)
		},
	}}
}

// Replies returns a fresh iterator over the replies of parent
func (h *Harvester) Replies(parent models.CommentRecord) *ReplyIterator {
	return &ReplyIterator{parent: parent, p: pager{
		pageSize: h.replyPageSize,
		fetch: func(ctx context.Context, cursor, count int) (models.CommentPage, error) {
			return h.transport.FetchReplies(ctx, h.videoID, parent.CommentID, cursor, count)
		},
	}}
}

// Run emits every comment followed immediately by all of its replies, then
// moves to the next comment. Any transport or payload error aborts the run.
func (h *Harvester) Run(ctx context.Context, sink Sink) error {
	h.stats = Stats{}
	h.logger.Info("Harvesting comments")

	it := h.Comments()
	for it.Next(ctx) {
		comment := it.Comment()
		h.stats.Comments++
		if err := sink(comment); err != nil {
			return err
		}

		if !comment.HasReplies() {
			continue
		}
		if err := h.drainReplies(ctx, comment, sink); err != nil {
			return err
		}
	}
	h.stats.Pages = it.Pages()

	if err := it.Err(); err != nil {
		return fmt.Errorf("fetch comments at cursor %d: %w", it.Cursor(), err)
	}
	return nil
}

func (h *Harvester) drainReplies(ctx context.Context, parent models.CommentRecord, sink Sink) error {
	h.stats.ReplyChains++

	replies := h.Replies(parent)
	for replies.Next(ctx) {
		h.stats.Replies++
		if err := sink(replies.Reply()); err != nil {
			return err
		}
	}
	h.stats.ReplyPages += replies.Pages()

	if err := replies.Err(); err != nil {
		return fmt.Errorf("fetch replies of %s at cursor %d: %w", parent.CommentID, replies.Cursor(), err)
	}
	return nil
}

// Stats returns the counters of the last Run
func (h *Harvester) Stats() Stats {
	return h.stats
}
