package models

import "time"

// CommentRecord is one comment or reply, normalized from the comment API
type CommentRecord struct {
	CommentID      string    `json:"comment_id"`
	ParentID       string    `json:"parent_id,omitempty"`
	Text           string    `json:"text"`
	CreateTime     time.Time `json:"create_time"`
	AuthorNickname string    `json:"user_nickname"`
	Language       string    `json:"comment_language"`
	LikeCount      int64     `json:"likes"`
	ReplyCount     int64     `json:"reply_count"`
}

// IsReply reports whether the record was fetched from a reply page
func (c CommentRecord) IsReply() bool {
	return c.ParentID != ""
}

// HasReplies reports whether reply pagination should be entered for this comment
func (c CommentRecord) HasReplies() bool {
	return c.ReplyCount > 0
}

// CommentPage is one page of a comment or reply listing
type CommentPage struct {
	Comments []CommentRecord
	HasMore  bool
}
