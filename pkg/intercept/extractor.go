package intercept

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"ttscraper/pkg/browser"
	"ttscraper/pkg/logger"
	"ttscraper/pkg/models"
	"ttscraper/pkg/tiktok"
)

// ErrNoPayload means a response simply does not carry item data
var ErrNoPayload = errors.New("response carries no item payload")

// Extractor turns intercepted responses into content items. It understands
// two shapes: the profile document with its embedded state script, and the
// item_list XHR.
type Extractor struct {
	logger logger.Logger
}

// NewExtractor creates an extractor
func NewExtractor(log logger.Logger) *Extractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Extractor{logger: log.WithField("component", "extractor")}
}

// Extract returns the items carried by resp. Most responses carry none, and
// malformed payloads are treated the same way: they yield nothing and never
// fail the caller.
func (e *Extractor) Extract(resp browser.Response) []models.ContentItem {
	var (
		items []models.ContentItem
		err   error
		shape string
	)

	switch {
	case resp.ResourceType == "document" && !resp.IsRedirect():
		shape = "document"
		items, err = e.ExtractDocument(resp.Body)
	case tiktok.IsItemListURL(resp.URL):
		shape = "xhr"
		items, err = e.ExtractXHR(resp.Body)
	default:
		return nil
	}

	if err != nil {
		if !errors.Is(err, ErrNoPayload) {
			e.logger.DebugWithFields("Ignoring malformed payload", map[string]interface{}{
				"shape": shape,
				"url":   resp.URL,
				"error": err.Error(),
			})
		}
		return nil
	}

	e.logger.DebugWithFields("Extracted items", map[string]interface{}{
		"shape": shape,
		"url":   resp.URL,
		"count": len(items),
	})
	return items
}

type documentState struct {
	UserModule *struct {
		Users map[string]json.RawMessage `json:"users"`
	} `json:"UserModule"`
	ItemModule map[string]map[string]json.RawMessage `json:"ItemModule"`
}

// ExtractDocument reads the state script of a profile document. Each item's
// author key is replaced by the full user record before decoding.
func (e *Extractor) ExtractDocument(body []byte) ([]models.ContentItem, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	script := doc.Find(tiktok.DocumentScriptSelector).First()
	if script.Length() == 0 {
		return nil, ErrNoPayload
	}

	var state documentState
	if err := json.Unmarshal([]byte(strings.TrimSpace(script.Text())), &state); err != nil {
		return nil, fmt.Errorf("decode state script: %w", err)
	}
	if state.UserModule == nil || state.ItemModule == nil {
		return nil, fmt.Errorf("state script lacks UserModule or ItemModule")
	}

	ids := make([]string, 0, len(state.ItemModule))
	for id := range state.ItemModule {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	items := make([]models.ContentItem, 0, len(ids))
	for _, id := range ids {
		raw := state.ItemModule[id]

		var userKey string
		if err := json.Unmarshal(raw["author"], &userKey); err != nil {
			return nil, fmt.Errorf("item %s: author is not a user key: %w", id, err)
		}
		user, ok := state.UserModule.Users[userKey]
		if !ok {
			return nil, fmt.Errorf("item %s: unknown author %q", id, userKey)
		}
		raw["author"] = user

		merged, err := json.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		var item models.ContentItem
		if err := json.Unmarshal(merged, &item); err != nil {
			return nil, fmt.Errorf("item %s: %w", id, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// ExtractXHR reads the already denormalized itemList of an item_list response
func (e *Extractor) ExtractXHR(body []byte) ([]models.ContentItem, error) {
	var payload struct {
		ItemList *[]models.ContentItem `json:"itemList"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode item list: %w", err)
	}
	if payload.ItemList == nil {
		return nil, ErrNoPayload
	}
	return *payload.ItemList, nil
}
