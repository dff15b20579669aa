package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestLogger_JSONFieldsAndCaller(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "debug", Format: "json", Output: &buf})

	Info("cart updated", Fields{"user_id": 7, "quantity": 2})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "cart updated", lines[0]["message"])
	assert.EqualValues(t, 7, lines[0]["user_id"])
	assert.Contains(t, lines[0]["caller"], "logger_test.go")
}

func TestLogger_WithContextAndError(t *testing.T) {
	var buf bytes.Buffer
	Initialize(Config{Level: "info", Format: "json", Output: &buf})

	reqLog := WithContext(Fields{"request_id": "abc"})
	reqLog.Debug("hidden below level")
	reqLog.Error("checkout failed", errors.New("boom"), Fields{"order_id": 3})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "error", lines[0]["level"])
	assert.Equal(t, "abc", lines[0]["request_id"])
	assert.Equal(t, "boom", lines[0]["error"])
}
