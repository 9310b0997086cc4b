package vertexshim

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vertexshim/vertex"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "INFO": LevelInfo, "": LevelInfo, "warning": LevelWarn, " error ": LevelError} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDefaultLogger_Levels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := newLoggerTo("test", LevelInfo, &out, &errOut)

	l.Debugf("hidden %d", 1)
	assert.Empty(t, out.String())

	l.SetLevel(LevelDebug)
	assert.True(t, l.Enabled(LevelDebug))
	l.Debugf("shown %d", 2)
	l.Infof("info")
	l.Warnf("warn")
	assert.Contains(t, out.String(), "[test] DEBUG: shown 2")
	assert.Contains(t, out.String(), "[test] INFO: info")
	assert.NotContains(t, out.String(), "WARN")
	assert.Contains(t, errOut.String(), "[test] WARN: warn")

	l.SetLevel(LevelError)
	l.Warnf("dropped")
	assert.NotContains(t, errOut.String(), "dropped")
}

func TestDefaultLogger_Named(t *testing.T) {
	var out bytes.Buffer
	root := newLoggerTo("vertexshim", LevelInfo, &out, &out)
	child := root.Named("manager")
	assert.Equal(t, "vertexshim/manager", child.Prefix())

	child.Infof("hello")
	assert.Contains(t, out.String(), "[vertexshim/manager] INFO: hello")

	root.SetLevel(LevelWarn)
	assert.False(t, child.Enabled(LevelInfo), "children follow the parent level")
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	l := NewLogger(cfg)
	assert.False(t, l.Enabled(LevelDebug))
	assert.True(t, l.Enabled(LevelInfo))
	assert.Equal(t, "vertexshim", l.Prefix())

	cfg.Debug = true
	assert.True(t, NewLogger(cfg).Enabled(LevelDebug))

	cfg.Debug, cfg.LogLevel = false, "error"
	assert.False(t, NewLogger(cfg).Enabled(LevelWarn))
	assert.False(t, NewNopLogger().Enabled(LevelError))
}

func TestNewManager_ScopesLogger(t *testing.T) {
	var out bytes.Buffer
	root := newLoggerTo("vertexshim", LevelError, &out, &out)
	m := NewManager(&vertex.HostFactory{MaxBufferSize: 16}, DefaultConfig(), root)
	assert.Nil(t, m.StreamingBuffer())
	assert.Contains(t, out.String(), "[vertexshim/manager] ERROR: Failed to allocate the streaming vertex buffer")
}
