package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomozero/venicedaw-core/internal/errorkind"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	want := Defaults()
	assert.Equal(t, want.SampleRate, cfg.SampleRate)
	assert.Equal(t, want.BlockSize, cfg.BlockSize)
	assert.Equal(t, want.ChannelLayout, cfg.ChannelLayout)
	assert.Equal(t, want.LogLevel, cfg.LogLevel)
}

func TestLoadParsesPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	const yamlContent = "sample_rate: 48000\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, cfg.SampleRate)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, Defaults().BlockSize, cfg.BlockSize, "untouched field should keep the default")
}

func TestLoadRejectsInvalidBlockSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("block_size: 300\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, errorkind.ErrConfigurationInvalid)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sample_rate: [unclosed\n"), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, errorkind.ErrConfigurationInvalid)
}

func TestValidateRejectsUnknownChannelLayout(t *testing.T) {
	cfg := Defaults()
	cfg.ChannelLayout = "quad"
	assert.ErrorIs(t, Validate(cfg), errorkind.ErrConfigurationInvalid)
}

func TestValidateAcceptsEveryDocumentedLayout(t *testing.T) {
	for _, layout := range []string{"mono", "stereo", "surround51", "surround71", "atmos"} {
		cfg := Defaults()
		cfg.ChannelLayout = layout
		assert.NoError(t, Validate(cfg), "layout %q should be accepted", layout)
	}
}
