package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/clipforge/internal/domain/port/core"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, core.LogLevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, core.LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, core.LogLevelError, ParseLevel("error"))
	assert.Equal(t, core.LogLevelInfo, ParseLevel("bogus"))
}

func TestZapLogger_WritesJSONAndHonoursLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewZapLogger(Options{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	l.Debug("hidden", nil)
	l.Info("Credits debited", map[string]any{"user_id": "u1", "amount": 5})
	l.SetLevel(core.LogLevelError)
	l.Warn("also hidden", nil)
	require.NoError(t, l.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Credits debited", entry["message"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, float64(5), entry["amount"])
	assert.Equal(t, core.LogLevelError, l.GetLevel())
}
