package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDebug_GatedByVerbose tests that debug output requires verbose mode.
func TestDebug_GatedByVerbose(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)
	defer SetVerbose(false)

	SetVerbose(false)
	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("shown %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] shown 2")
}

// TestWarn_AlwaysPrints tests that warnings bypass the verbose gate.
func TestWarn_AlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Warn("upload failed: %s", "timeout")

	assert.Contains(t, buf.String(), "[WARN] upload failed: timeout")
}

// TestError_AlwaysPrints tests that errors bypass the verbose gate.
func TestError_AlwaysPrints(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Error("run failed")

	assert.Contains(t, buf.String(), "[ERROR] run failed")
}

// TestIsVerbose tests the verbose flag accessor.
func TestIsVerbose(t *testing.T) {
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
