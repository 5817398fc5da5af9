package comments

import (
	"context"

	"ttscraper/pkg/models"
)

type fetchFunc func(ctx context.Context, cursor, count int) (models.CommentPage, error)

// pager walks one cursor-paginated listing. The cursor starts at zero and
// moves forward by exactly pageSize after every page that reports more
// results; it never moves back.
type pager struct {
	fetch    fetchFunc
	pageSize int

	cursor  int
	pages   int
	hasMore bool
	fetched bool

	buf     []models.CommentRecord
	pos     int
	current models.CommentRecord
	err     error
}

func (p *pager) next(ctx context.Context) bool {
	for p.pos >= len(p.buf) {
		if p.err != nil || (p.fetched && !p.hasMore) {
			return false
		}
		if err := ctx.Err(); err != nil {
			p.err = err
			return false
		}

		page, err := p.fetch(ctx, p.cursor, p.pageSize)
		if err != nil {
			p.err = err
			return false
		}

		p.pages++
		p.fetched = true
		p.hasMore = page.HasMore
		p.buf, p.pos = page.Comments, 0
		if page.HasMore {
			p.cursor += p.pageSize
		}
	}

	p.current = p.buf[p.pos]
	p.pos++
	return true
}

// CommentIterator yields the top-level comments of one video, page by page
type CommentIterator struct {
	p pager
}

// Next advances to the next comment, fetching a page when needed.
// It returns false at the end of the listing or on error; check Err.
func (it *CommentIterator) Next(ctx context.Context) bool { return it.p.next(ctx) }

// Comment returns the comment Next advanced to
func (it *CommentIterator) Comment() models.CommentRecord { return it.p.current }

// Err returns the error that stopped iteration, if any
func (it *CommentIterator) Err() error { return it.p.err }

// Cursor returns the offset of the next page to fetch
func (it *CommentIterator) Cursor() int { return it.p.cursor }

// Pages returns how many pages were fetched so far
func (it *CommentIterator) Pages() int { return it.p.pages }

// ReplyIterator yields the replies of one comment. Each comment gets its own
// iterator, so reply cursors always start at zero.
type ReplyIterator struct {
	parent models.CommentRecord
	p      pager
}

// Next advances to the next reply, fetching a page when needed.
// It returns false at the end of the chain or on error; check Err.
func (it *ReplyIterator) Next(ctx context.Context) bool { return it.p.next(ctx) }

// Reply returns the reply Next advanced to
func (it *ReplyIterator) Reply() models.CommentRecord { return it.p.current }

// Err returns the error that stopped iteration, if any
func (it *ReplyIterator) Err() error { return it.p.err }

// Cursor returns the offset of the next reply page to fetch
func (it *ReplyIterator) Cursor() int { return it.p.cursor }

// Pages returns how many reply pages were fetched so far
func (it *ReplyIterator) Pages() int { return it.p.pages }

// Parent returns the comment whose replies are listed
func (it *ReplyIterator) Parent() models.CommentRecord { return it.parent }
