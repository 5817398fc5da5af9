package tiktok

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const (
	// BaseURL is the public web origin
	BaseURL = "https://www.tiktok.com"

	// CommentListURL lists top-level comments of a video
	CommentListURL = BaseURL + "/api/comment/list/"

	// ReplyListURL lists replies of one comment
	ReplyListURL = BaseURL + "/api/comment/list/reply/"

	// TelemetryURL is the browser monitoring collector blocked during harvesting
	TelemetryURL = "https://mon-va.byteoversea.com/monitor_browser/collect/batch/"

	// DocumentScriptSelector locates the state payload embedded in profile documents
	DocumentScriptSelector = "script#SIGI_STATE"
)

// ItemListPrefixes are the URL prefixes of XHR responses carrying item lists
var ItemListPrefixes = []string{
	"https://www.tiktok.com/api/post/item_list/",
	"https://m.tiktok.com/api/post/item_list/",
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9._]{1,24}$`)

// ProfileURL returns the profile page for username, rendered in lang when set
func ProfileURL(username, lang string) string {
	u := fmt.Sprintf("%s/@%s", BaseURL, url.PathEscape(username))
	if lang == "" {
		return u
	}
	return u + "?lang=" + url.QueryEscape(lang)
}

// VideoURL returns the canonical page of a video
func VideoURL(username, videoID string) string {
	return fmt.Sprintf("%s/@%s/video/%s", BaseURL, username, videoID)
}

// SanitizeUsername lower-cases a username and strips a leading @ and surrounding slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.TrimPrefix(username, "@")
	username = strings.Trim(username, "/ ")
	return strings.ToLower(username)
}

// IsValidUsername reports whether a sanitized username is well formed
func IsValidUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

// ExtractVideoID returns the video identifier from a video URL, which is the
// last path segment. A bare numeric identifier is returned unchanged.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty video reference")
	}
	if isNumeric(raw) {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid video URL %q: %w", raw, err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := segments[len(segments)-1]
	if id == "" {
		return "", fmt.Errorf("no video id in %q", raw)
	}
	return id, nil
}

// IsItemListURL reports whether a response URL is an item-list XHR endpoint
func IsItemListURL(rawURL string) bool {
	for _, prefix := range ItemListPrefixes {
		if strings.HasPrefix(rawURL, prefix) {
			return true
		}
	}
	return false
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
