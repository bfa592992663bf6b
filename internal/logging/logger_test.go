package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatterLayout(t *testing.T) {
	entry := &logrus.Entry{
		Logger:  logrus.New(),
		Time:    time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		Level:   logrus.WarnLevel,
		Message: "source failed",
		Data:    logrus.Fields{"source": "archive", "err": "timeout"},
	}

	out, err := (&Formatter{}).Format(entry)
	require.NoError(t, err)
	assert.Equal(t, "[2026-03-01 12:30:00] [WARN] [] source failed err=timeout source=archive\n", string(out))
}

func TestNewLevelFallback(t *testing.T) {
	log, err := New("nonsense", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log, err = New("debug", "")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "docsearch.log")
	log, err := New("info", path)
	require.NoError(t, err)

	log.Info("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
