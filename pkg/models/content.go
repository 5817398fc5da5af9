package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DefaultMediaFormat is used when an item does not report its media format
const DefaultMediaFormat = "mp4"

// ContentItem represents one harvested post as exposed by the profile page
type ContentItem struct {
	ID          string       `json:"id"`
	Description string       `json:"desc"`
	CreateTime  EpochSeconds `json:"createTime"`
	Author      Author       `json:"author"`
	Media       Media        `json:"video"`
}

// Author holds the user record an item belongs to
type Author struct {
	ID          string `json:"id"`
	UniqueID    string `json:"uniqueId"`
	Nickname    string `json:"nickname"`
	Signature   string `json:"signature"`
	AvatarThumb string `json:"avatarThumb"`
	Verified    bool   `json:"verified"`
	SecUID      string `json:"secUid"`
}

// Media holds the downloadable video of an item
type Media struct {
	ID              string `json:"id"`
	DownloadAddress string `json:"downloadAddr"`
	PlayAddress     string `json:"playAddr"`
	Format          string `json:"format"`
	Cover           string `json:"cover"`
	Duration        int    `json:"duration"`
}

// VideoFilename returns the on-disk name of the item's media: {id}.{format}
func (c ContentItem) VideoFilename() string {
	format := c.Media.Format
	if format == "" {
		format = DefaultMediaFormat
	}
	return fmt.Sprintf("%s.%s", c.ID, format)
}

// HasMedia reports whether the item can be downloaded at all
func (c ContentItem) HasMedia() bool {
	return c.ID != "" && c.Media.DownloadAddress != ""
}

// CreatedAt returns the creation time, or the zero time when unknown
func (c ContentItem) CreatedAt() time.Time {
	return c.CreateTime.Time()
}

func (c ContentItem) String() string {
	return fmt.Sprintf("<ContentItem(id=%q, description=%q)>", c.ID, c.Description)
}

// EpochSeconds is a unix timestamp that decodes from either a JSON number or
// a numeric string. The document payload and the item_list API disagree on
// which one they send.
type EpochSeconds int64

// UnmarshalJSON implements json.Unmarshaler
func (e *EpochSeconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*e = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*e = 0
			return nil
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid epoch seconds %q: %w", s, err)
		}
		*e = EpochSeconds(v)
		return nil
	}
	var v int64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*e = EpochSeconds(v)
	return nil
}

// Time converts to time.Time; zero stays the zero time
func (e EpochSeconds) Time() time.Time {
	if e == 0 {
		return time.Time{}
	}
	return time.Unix(int64(e), 0)
}
