package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("development environment", func(t *testing.T) {
		l := New("debug", "development")
		assert.NotNil(t, l)
		assert.True(t, IsDebugEnabled(l))
	})

	t.Run("production environment", func(t *testing.T) {
		l := New("info", "production")
		assert.NotNil(t, l)
		assert.False(t, IsDebugEnabled(l))
	})

	t.Run("invalid log level falls back to info", func(t *testing.T) {
		l := New("loud", "development")
		assert.False(t, IsDebugEnabled(l))
	})
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	l.WithField("component", "fetcher").Infof("fetched %d readings", 216)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "fetched 216 readings", line["msg"])
	assert.Equal(t, "fetcher", line["component"])
	assert.Equal(t, "info", line["level"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Equal(t, 1, strings.Count(out, "shown"))
}

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf).WithFields(map[string]interface{}{
		"view":     "realtime",
		"location": "Jakarta Pusat",
	})

	l.Error("render failed")

	assert.Contains(t, buf.String(), `"view":"realtime"`)
	assert.Contains(t, buf.String(), `"location":"Jakarta Pusat"`)
}

func TestComponent(t *testing.T) {
	assert.NotNil(t, Component(nil, "dashboard"))

	var buf bytes.Buffer
	Component(NewWithWriter("info", &buf), "dashboard").Info("ok")
	assert.Contains(t, buf.String(), `"component":"dashboard"`)
}

func TestStringToLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warning"},
		{"error", "error"},
		{"bogus", "info"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, StringToLevel(tc.input).String())
		})
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	assert.False(t, IsDebugEnabled(l))
}
