package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := newWithWriter(&buf, "info", "json")
	require.NoError(t, err)

	log.Info().Str("conversation_id", "c1").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "c1", line["conversation_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_RejectsUnknownInput(t *testing.T) {
	_, err := newWithWriter(&bytes.Buffer{}, "loud", "json")
	assert.Error(t, err)

	_, err = newWithWriter(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
