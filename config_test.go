package vertexshim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/vertexshim/vertex"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, uint64(1024*1024), cfg.InitialStreamBufferSize)
	assert.Equal(t, uint64(4096), cfg.ConstantVertexBufferSize)
	assert.Equal(t, 16, cfg.MaxVertexAttribs)
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte("initial_stream_buffer_size: 65536\ndebug: true\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(65536), cfg.InitialStreamBufferSize)
	assert.True(t, cfg.Debug)
	assert.Equal(t, uint64(ConstantVertexBufferSize), cfg.ConstantVertexBufferSize, "unset keys keep defaults")
	assert.Equal(t, "vertexshim", cfg.LogPrefix)
	assert.Equal(t, LevelDebug, cfg.Level(), "debug overrides log_level")
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"small constant buffer": "constant_vertex_buffer_size: 1024\n",
		"stream below constant": "initial_stream_buffer_size: 2048\n",
		"too many attributes":   "max_vertex_attribs: 64\n",
		"no attributes":         "max_vertex_attribs: 0\n",
		"malformed":             "initial_stream_buffer_size: [\n",
		"unknown log level":     "log_level: loud\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vertexshim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_vertex_attribs: 8\nlog_prefix: demo\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.MaxVertexAttribs)
	assert.Equal(t, "demo", cfg.LogPrefix)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewManager_FillsZeroConfig(t *testing.T) {
	m := NewManager(vertex.NewHostFactory(), Config{}, nil)
	defer m.Release()
	assert.Equal(t, uint64(InitialStreamBufferSize), m.StreamingBuffer().BufferSize())
	assert.Len(t, m.currentValueCache, MaxVertexAttribs)
}
