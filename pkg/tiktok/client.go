package tiktok

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"ttscraper/pkg/errors"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
)

// Client talks to the comment API and the media CDN on behalf of one Identity.
// It never retries: any failure is reported to the caller as is.
type Client struct {
	api        *resty.Client
	media      *resty.Client
	identity   Identity
	commentURL string
	replyURL   string
	logger     logger.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithEndpoints overrides the comment and reply listing URLs
func WithEndpoints(commentURL, replyURL string) Option {
	return func(c *Client) {
		c.commentURL = commentURL
		c.replyURL = replyURL
	}
}

// NewClient creates a client. requestTimeout bounds each API call while
// downloadTimeout bounds a whole media transfer, body included.
func NewClient(identity Identity, requestTimeout, downloadTimeout time.Duration, log logger.Logger, opts ...Option) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("component", "tiktok")

	c := &Client{
		api:        newRestyClient(identity, requestTimeout, log),
		media:      newRestyClient(identity, downloadTimeout, log),
		identity:   identity,
		commentURL: CommentListURL,
		replyURL:   ReplyListURL,
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newRestyClient(identity Identity, timeout time.Duration, log logger.Logger) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetHeaders(identity.Headers()).
		SetLogger(restyLogger{log})
}

// FetchComments fetches one page of top-level comments of a video
func (c *Client) FetchComments(ctx context.Context, videoID string, cursor, count int) (models.CommentPage, error) {
	params := c.identity.Query()
	params.Set("aweme_id", videoID)
	params.Set("cursor", strconv.Itoa(cursor))
	params.Set("count", strconv.Itoa(count))

	body, err := c.getJSON(ctx, c.commentURL, params)
	if err != nil {
		return models.CommentPage{}, err
	}

	page, err := parseCommentPage(body, "")
	if err != nil {
		return models.CommentPage{}, err
	}
	logger.LogCommentPage(c.logger, "comments", videoID, cursor, len(page.Comments), page.HasMore)
	return page, nil
}

// FetchReplies fetches one page of replies to commentID under videoID
func (c *Client) FetchReplies(ctx context.Context, videoID, commentID string, cursor, count int) (models.CommentPage, error) {
	params := c.identity.Query()
	params.Del("aweme_id")
	params.Set("item_id", videoID)
	params.Set("comment_id", commentID)
	params.Set("cursor", strconv.Itoa(cursor))
	params.Set("count", strconv.Itoa(count))

	body, err := c.getJSON(ctx, c.replyURL, params)
	if err != nil {
		return models.CommentPage{}, err
	}

	page, err := parseCommentPage(body, commentID)
	if err != nil {
		return models.CommentPage{}, err
	}
	logger.LogCommentPage(c.logger, "replies", commentID, cursor, len(page.Comments), page.HasMore)
	return page, nil
}

// OpenMedia issues a streamed GET for a media URL. The caller must close the
// returned body; it is never buffered in memory by the client.
func (c *Client) OpenMedia(ctx context.Context, mediaURL string) (io.ReadCloser, error) {
	resp, err := c.media.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(mediaURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "media request failed")
	}

	if !errors.IsSuccessStatusCode(resp.StatusCode()) {
		resp.RawBody().Close()
		c.logger.WarnWithFields("media request rejected", map[string]interface{}{
			"url":    mediaURL,
			"status": resp.StatusCode(),
		})
		return nil, errors.New(errors.TypeForStatusCode(resp.StatusCode()), resp.StatusCode(),
			fmt.Sprintf("media request returned status %d", resp.StatusCode()))
	}

	return resp.RawBody(), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(endpoint)
	if err != nil {
		c.logger.ErrorWithFields("API request failed", map[string]interface{}{
			"url":   endpoint,
			"error": err.Error(),
		})
		return nil, errors.Wrap(errors.ErrorTypeNetwork, err, "API request failed")
	}

	c.logger.DebugWithFields("API request completed", map[string]interface{}{
		"url":      endpoint,
		"status":   resp.StatusCode(),
		"duration": time.Since(start),
	})

	if !errors.IsSuccessStatusCode(resp.StatusCode()) {
		c.logger.ErrorWithFields("API returned non-success status", map[string]interface{}{
			"url":    endpoint,
			"status": resp.StatusCode(),
		})
		return nil, errors.New(errors.TypeForStatusCode(resp.StatusCode()), resp.StatusCode(),
			fmt.Sprintf("API returned status %d", resp.StatusCode()))
	}

	return resp.Body(), nil
}

// parseCommentPage converts a listing payload into a page. The API contract
// is assumed stable, so missing fields are reported as parsing errors rather
// than defaulted. A null comment list is an empty page.
func parseCommentPage(body []byte, parentID string) (models.CommentPage, error) {
	if !gjson.ValidBytes(body) {
		return models.CommentPage{}, errors.New(errors.ErrorTypeParsing, 0, "response is not valid JSON")
	}
	doc := gjson.ParseBytes(body)

	if status := doc.Get("status_code"); status.Exists() && status.Int() != 0 {
		return models.CommentPage{}, errors.New(errors.ErrorTypeAPI, int(status.Int()),
			fmt.Sprintf("API reported failure: %s", doc.Get("status_msg").String()))
	}

	hasMore := doc.Get("has_more")
	if !hasMore.Exists() {
		return models.CommentPage{}, errors.New(errors.ErrorTypeParsing, 0, "response has no has_more field")
	}
	list := doc.Get("comments")
	if !list.Exists() {
		return models.CommentPage{}, errors.New(errors.ErrorTypeParsing, 0, "response has no comments field")
	}

	page := models.CommentPage{HasMore: hasMore.Int() == 1}
	if list.Type == gjson.Null {
		return page, nil
	}
	if !list.IsArray() {
		return models.CommentPage{}, errors.New(errors.ErrorTypeParsing, 0, "comments field is not a list")
	}

	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		record, err := parseComment(item, parentID)
		if err != nil {
			parseErr = err
			return false
		}
		page.Comments = append(page.Comments, record)
		return true
	})
	if parseErr != nil {
		return models.CommentPage{}, parseErr
	}
	return page, nil
}

func parseComment(item gjson.Result, parentID string) (models.CommentRecord, error) {
	for _, field := range []string{"cid", "text", "create_time", "user.nickname"} {
		if !item.Get(field).Exists() {
			return models.CommentRecord{}, errors.New(errors.ErrorTypeParsing, 0,
				fmt.Sprintf("comment is missing %s", field))
		}
	}

	return models.CommentRecord{
		CommentID:      item.Get("cid").String(),
		ParentID:       parentID,
		Text:           item.Get("text").String(),
		CreateTime:     time.Unix(item.Get("create_time").Int(), 0),
		AuthorNickname: item.Get("user.nickname").String(),
		Language:       item.Get("comment_language").String(),
		LikeCount:      item.Get("digg_count").Int(),
		ReplyCount:     item.Get("reply_comment_total").Int(),
	}, nil
}

// restyLogger routes resty's internal messages into our logger
type restyLogger struct {
	l logger.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(fmt.Sprintf(format, v...))
}
