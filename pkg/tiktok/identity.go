package tiktok

import (
	"net/url"
	"strconv"

	"ttscraper/pkg/config"
)

// Identity is the client fingerprint sent with every API call: a fixed set
// of query parameters and headers. It is built once from configuration and
// never mutated; accessors hand out copies.
type Identity struct {
	params  url.Values
	headers map[string]string
}

// NewIdentity builds the identity described by the client configuration
func NewIdentity(cfg config.ClientConfig) Identity {
	params := url.Values{}
	params.Set("aid", "1988")
	params.Set("app_language", cfg.AppLanguage)
	params.Set("app_name", "tiktok_web")
	params.Set("browser_language", cfg.BrowserLanguage)
	params.Set("browser_name", "Mozilla")
	params.Set("browser_online", "true")
	params.Set("browser_platform", "Linux x86_64")
	params.Set("browser_version", "5.0 (X11)")
	params.Set("channel", "tiktok_web")
	params.Set("cookie_enabled", "true")
	params.Set("current_region", cfg.CurrentRegion)
	params.Set("device_platform", "web_pc")
	params.Set("focus_state", "true")
	params.Set("fromWeb", "1")
	params.Set("from_page", "video")
	params.Set("history_len", "4")
	params.Set("is_fullscreen", "false")
	params.Set("is_page_visible", "true")
	params.Set("os", "linux")
	params.Set("priority_region", "")
	params.Set("referer", "")
	params.Set("region", cfg.Region)
	params.Set("screen_height", strconv.Itoa(cfg.ScreenHeight))
	params.Set("screen_width", strconv.Itoa(cfg.ScreenWidth))
	params.Set("tz_name", cfg.TimeZone)
	params.Set("webcast_language", cfg.BrowserLanguage)

	headers := map[string]string{
		"User-Agent":      cfg.UserAgent,
		"Accept":          "*/*",
		"Accept-Language": cfg.AcceptLanguage,
		"Referer":         cfg.Referer,
		"Sec-Fetch-Dest":  "empty",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "same-origin",
		"Pragma":          "no-cache",
		"Cache-Control":   "no-cache",
	}

	return Identity{params: params, headers: headers}
}

// DefaultIdentity returns the identity of the default configuration
func DefaultIdentity() Identity {
	return NewIdentity(config.DefaultConfig().Client)
}

// Query returns a fresh copy of the identity query parameters
func (i Identity) Query() url.Values {
	out := make(url.Values, len(i.params))
	for k, v := range i.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Headers returns a fresh copy of the identity headers
func (i Identity) Headers() map[string]string {
	out := make(map[string]string, len(i.headers))
	for k, v := range i.headers {
		out[k] = v
	}
	return out
}

// UserAgent returns the User-Agent header value
func (i Identity) UserAgent() string {
	return i.headers["User-Agent"]
}
