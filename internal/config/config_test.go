package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, "info", c.Logging.Level)
	assert.Equal(t, 0, c.Tiles.Completed)
	assert.Equal(t, 1, c.Tiles.Uncompleted)
	assert.Equal(t, 0.9, c.Tiles.Spacing)
	assert.Equal(t, "degrade", c.Symbology.Policy)
	assert.Equal(t, "cells", c.Export.LayerName)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tilemask.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tiles:\n  size: 128\nsymbology:\n  policy: strict\n"), 0o644))
	t.Setenv("TILEMASK_TILES_UNCOMPLETED", "5")

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	BindEnv(v)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 128, c.Tiles.Size)
	assert.Equal(t, 5, c.Tiles.Uncompleted)
	assert.Equal(t, "strict", c.Symbology.Policy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"bad level", "logging.level", "loud"},
		{"bad format", "logging.format", "xml"},
		{"same priorities", "tiles.uncompleted", 0},
		{"zero spacing", "tiles.spacing", 0.0},
		{"spacing above one", "tiles.spacing", 1.5},
		{"spacing of one", "tiles.spacing", 1.0},
		{"negative size", "tiles.size", -1},
		{"bad policy", "symbology.policy", "lenient"},
		{"empty layer", "export.layer_name", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
