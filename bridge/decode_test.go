package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/waybridge/types"
)

func TestDecodeRequest_Valid(t *testing.T) {
	req, err := DecodeRequest(`{"tool":"execute_task","arguments":{"task":"open firefox"}}`)
	require.Nil(t, err)
	assert.Equal(t, "execute_task", req.Tool)
	assert.JSONEq(t, `{"task":"open firefox"}`, string(req.Arguments))
	assert.NotEmpty(t, req.ID)
	assert.False(t, req.ReceivedAt.IsZero())
}

func TestDecodeRequest_MissingArguments(t *testing.T) {
	req, err := DecodeRequest(`{"tool":"capture_screenshot"}`)
	require.Nil(t, err)
	assert.Equal(t, "capture_screenshot", req.Tool)
	// Args defaults to an empty object so the backend always gets valid JSON.
	assert.Equal(t, `{}`, string(req.Args()))
}

func TestDecodeRequest_EmptyLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		req, err := DecodeRequest(line)
		require.NotNil(t, err, "line %q", line)
		assert.Nil(t, req)
		assert.Equal(t, types.ErrDecode, err.Code)
	}
}

func TestDecodeRequest_InvalidJSON(t *testing.T) {
	req, err := DecodeRequest(`{"tool": "x"`)
	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, types.ErrDecode, err.Code)
	assert.NotNil(t, err.Cause)
}

func TestDecodeRequest_MissingTool(t *testing.T) {
	req, err := DecodeRequest(`{"arguments":{"a":1}}`)
	require.NotNil(t, err)
	assert.Nil(t, req)
	assert.Equal(t, types.ErrDecode, err.Code)
	assert.Contains(t, err.Message, "missing tool")
}

func TestDecodeRequest_ExtraFieldsIgnored(t *testing.T) {
	req, err := DecodeRequest(`{"tool":"move_mouse","arguments":{"x":10},"id":42,"unknown":true}`)
	require.Nil(t, err)
	assert.Equal(t, "move_mouse", req.Tool)
}
