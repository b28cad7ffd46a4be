package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false, false)
	l.Debug().Msg("hidden")
	l.Info().Str("account", "00001").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"account":"00001"`)

	buf.Reset()
	l = newLogger(&buf, false, true)
	l.Debug().Msg("debug line")
	assert.Contains(t, buf.String(), "debug line")
}

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, true, false)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}
