package intercept

import (
	"strings"

	"ttscraper/pkg/tiktok"
)

// DefaultExcludedTypes are resource types never needed to read item data
var DefaultExcludedTypes = []string{"stylesheet", "image", "media", "font"}

// Filter is a pure allow/deny predicate over outgoing requests
type Filter struct {
	excludedTypes map[string]struct{}
	blockedURLs   map[string]struct{}
}

// NewFilter denies the given resource types (case-insensitive) and the given exact URLs
func NewFilter(excludedTypes, blockedURLs []string) *Filter {
	f := &Filter{
		excludedTypes: make(map[string]struct{}, len(excludedTypes)),
		blockedURLs:   make(map[string]struct{}, len(blockedURLs)),
	}
	for _, t := range excludedTypes {
		f.excludedTypes[strings.ToLower(t)] = struct{}{}
	}
	for _, u := range blockedURLs {
		f.blockedURLs[u] = struct{}{}
	}
	return f
}

// DefaultFilter blocks rendering assets and the telemetry collector
func DefaultFilter() *Filter {
	return NewFilter(DefaultExcludedTypes, []string{tiktok.TelemetryURL})
}

// ShouldAllow reports whether a request may proceed
func (f *Filter) ShouldAllow(resourceType, url string) bool {
	if _, excluded := f.excludedTypes[strings.ToLower(resourceType)]; excluded {
		return false
	}
	if _, blocked := f.blockedURLs[url]; blocked {
		return false
	}
	return true
}
