package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func TestApply_LevelAndJSON(t *testing.T) {
	l := log.New()
	cfg := &Config{Format: "json", Level: "warn"}
	require.NoError(t, cfg.Apply(l))
	assert.Equal(t, log.WarnLevel, l.GetLevel())

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.Info("hidden")
	l.WithField("index", "logs").Warn("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "logs", line["index"])
	assert.Equal(t, "warning", line["level"])
}

func TestApply_Text(t *testing.T) {
	l := log.New()
	require.NoError(t, (&Config{Format: "text", Level: "debug"}).Apply(l))
	assert.IsType(t, &log.TextFormatter{}, l.Formatter)
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.Equal(t, os.Stderr, l.Out)
}

func TestApply_Invalid(t *testing.T) {
	assert.Error(t, (&Config{Format: "xml"}).Apply(log.New()))
	assert.Error(t, (&Config{Level: "loud"}).Apply(log.New()))
}

func TestWriter_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reshard.log")
	cfg := &Config{File: path, MaxSizeMB: 5, MaxBackups: 2, MaxAgeDays: 3}

	w, ok := cfg.Writer().(*lumberjack.Logger)
	require.True(t, ok)
	assert.Equal(t, path, w.Filename)
	assert.Equal(t, 5, w.MaxSize)
	assert.Equal(t, 2, w.MaxBackups)
	assert.Equal(t, 3, w.MaxAge)

	l := log.New()
	require.NoError(t, cfg.Apply(l))
	l.Info("to file")
	require.NoError(t, l.Out.(*lumberjack.Logger).Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestWriter_Stderr(t *testing.T) {
	assert.Equal(t, os.Stderr, (&Config{File: "-"}).Writer())
	assert.Equal(t, os.Stderr, (&Config{}).Writer())
}
