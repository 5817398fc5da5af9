package comments

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"ttscraper/pkg/models"
)

// Output formats accepted by NewSink
const (
	FormatText  = "text"
	FormatJSONL = "jsonl"
)

// NewJSONLSink writes one JSON object per record and line
func NewJSONLSink(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return func(c models.CommentRecord) error {
		return enc.Encode(c)
	}
}

// NewSink returns the sink for format. Text records are rendered by printText.
func NewSink(format string, w io.Writer, printText func(io.Writer, models.CommentRecord)) (Sink, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return func(c models.CommentRecord) error {
			printText(w, c)
			return nil
		}, nil
	case FormatJSONL:
		return NewJSONLSink(w), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want %s or %s)", format, FormatText, FormatJSONL)
	}
}
