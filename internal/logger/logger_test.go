package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nudeploy/internal/config"
)

func TestGetLogLevelFromString(t *testing.T) {
	assert.Equal(t, DEBUG, GetLogLevelFromString("DEBUG"))
	assert.Equal(t, INFO, GetLogLevelFromString("info"))
	assert.Equal(t, WARN, GetLogLevelFromString("warning"))
	assert.Equal(t, ERROR, GetLogLevelFromString("error"))
	assert.Equal(t, WARN, GetLogLevelFromString("verbose"))
}

func TestSetOutput_FiltersLevels(t *testing.T) {
	defer func() { defaultLogger = nil }()

	var buf bytes.Buffer
	SetOutput(&buf, WARN)
	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, "WARN: ")
	assert.Contains(t, out, "warn 3")
	assert.Contains(t, out, "error 4")
	assert.Contains(t, out, "logger_test.go")
}

func TestInitLogger_File(t *testing.T) {
	defer func() {
		Close()
		defaultLogger = nil
	}()

	path := filepath.Join(t.TempDir(), "logs", "nudeploy.log")
	InitLogger(&config.LogConfig{Level: "info", Path: path}, false)
	Infof("installed %s", "Package.A")
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "installed Package.A")
}

func TestUninitializedLoggerIsSilent(t *testing.T) {
	defaultLogger = nil
	assert.NotPanics(t, func() {
		Infof("nothing %s", "here")
		Error("nothing")
	})
}
