package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttscraper/pkg/config"
)

func bufferLogger(buf *bytes.Buffer) *zerologLogger {
	zlog := zerolog.New(buf).Level(zerolog.DebugLevel)
	return &zerologLogger{logger: &zlog, fields: make(map[string]interface{})}
}

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{name: "info level", cfg: &config.LoggingConfig{Level: "info"}},
		{name: "debug level", cfg: &config.LoggingConfig{Level: "debug"}},
		{name: "invalid level", cfg: &config.LoggingConfig{Level: "loud"}, wantErr: true},
		{
			name: "rotating file output",
			cfg: &config.LoggingConfig{
				Level:      "info",
				File:       filepath.Join(dir, "logs", "ttscraper.log"),
				MaxSize:    1,
				MaxBackups: 1,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewCreatesLogDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")

	l, err := New(&config.LoggingConfig{Level: "info", File: path, MaxSize: 1})
	require.NoError(t, err)
	l.Info("hello")

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestFieldsAreCarried(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	l.WithField("username", "alice").
		WithFields(map[string]interface{}{"items": 3, "headless": true}).
		Info("harvest started")

	out := buf.String()
	assert.Contains(t, out, "harvest started")
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, `"items":3`)
	assert.Contains(t, out, `"headless":true`)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	_ = l.WithField("child", "yes")
	l.Info("parent")

	assert.NotContains(t, buf.String(), "child")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := bufferLogger(&buf)

	assert.Same(t, l, l.WithError(nil))

	l.WithError(errors.New("connection reset")).Error("fetch failed")
	assert.Contains(t, buf.String(), "connection reset")
}

func TestHelpersWriteToGivenLogger(t *testing.T) {
	captured := NewTestLogger()
	global := NewTestLogger()
	prev := SetLogger(global)
	defer SetLogger(prev)

	LogHarvestSummary(captured, "s-1", "alice", 4, 3, 1, 0, 0)
	LogDownload(captured.WithField("session_id", "s-1"), "alice", "42.mp4", "failed", errors.New("boom"))
	LogCommentPage(captured, "comments", "7100", 50, 20, true)

	require.True(t, captured.HasMessage("Harvest finished"))
	msgs := captured.GetMessagesByLevel("INFO")
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].Fields["username"])
	assert.Equal(t, 4, msgs[0].Fields["items"])

	failures := captured.GetMessagesByLevel("ERROR")
	require.Len(t, failures, 1)
	assert.Equal(t, "s-1", failures[0].Fields["session_id"])
	assert.Equal(t, "42.mp4", failures[0].Fields["filename"])
	assert.True(t, captured.HasMessage("Comment page fetched"))

	assert.Empty(t, global.GetMessages())
}

func TestHelpersFallBackToGlobalLogger(t *testing.T) {
	global := NewTestLogger()
	prev := SetLogger(global)
	defer SetLogger(prev)

	LogComponentStart(nil, "comments", map[string]interface{}{"video_id": "7100"})
	LogComponentStop(nil, "comments", "completed")

	msgs := global.GetMessages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "comments", msgs[0].Fields["component"])
	assert.Equal(t, "7100", msgs[0].Fields["video_id"])
	assert.Equal(t, "completed", msgs[1].Fields["reason"])
}

func TestGetLoggerConcurrentFirstUse(t *testing.T) {
	prev := SetLogger(nil)
	defer SetLogger(prev)

	const n = 32
	loggers := make([]Logger, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loggers[i] = GetLogger()
			loggers[i].WithField("worker", i).Debug("first use")
		}(i)
	}
	wg.Wait()

	for _, l := range loggers {
		assert.Same(t, loggers[0], l)
	}
}

func TestTestLoggerChildrenShareCapture(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("component", "downloader").WithError(errors.New("disk full"))
	child.Warn("save failed")

	msgs := tl.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "WARN", msgs[0].Level)
	assert.Equal(t, "downloader", msgs[0].Fields["component"])
	assert.EqualError(t, msgs[0].Error, "disk full")

	tl.Clear()
	assert.Empty(t, tl.GetMessages())
}
