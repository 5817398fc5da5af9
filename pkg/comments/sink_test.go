package comments

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttscraper/pkg/models"
)

func TestJSONLSinkWritesOneObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONLSink(&buf)

	created := time.Unix(1700000000, 0).UTC()
	require.NoError(t, sink(models.CommentRecord{CommentID: "1", Text: "<b>hi</b>", CreateTime: created, LikeCount: 3, ReplyCount: 1}))
	require.NoError(t, sink(models.CommentRecord{CommentID: "2", ParentID: "1", Text: "re"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"text":"<b>hi</b>"`)

	var reply map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &reply))
	assert.Equal(t, "1", reply["parent_id"])
	assert.Equal(t, "2", reply["comment_id"])
}

func TestNewSink(t *testing.T) {
	printText := func(w io.Writer, c models.CommentRecord) {
		fmt.Fprintf(w, "%s|", c.CommentID)
	}

	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{format: "", want: "a|"},
		{format: "text", want: "a|"},
		{format: "JSONL", want: `"comment_id":"a"`},
		{format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			sink, err := NewSink(tt.format, &buf, printText)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NoError(t, sink(models.CommentRecord{CommentID: "a"}))
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
