// Package config 读取命令行工具的配置：默认值、配置文件、TILEMASK_前缀的环境变量与命令行参数
package config

import (
	"fmt"
	"strings"

	"github.com/wgdzlh/tilemask/symbology"

	"github.com/spf13/viper"
)

const EnvPrefix = "TILEMASK"

type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Tiles     TilesConfig     `mapstructure:"tiles"`
	Symbology SymbologyConfig `mapstructure:"symbology"`
	Export    ExportConfig    `mapstructure:"export"`
	Gdal      GdalConfig      `mapstructure:"gdal"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// 完成/未完成的priority取值，分块边长与间距比例
type TilesConfig struct {
	Completed   int     `mapstructure:"completed"`
	Uncompleted int     `mapstructure:"uncompleted"`
	Spacing     float64 `mapstructure:"spacing"`
	Size        int     `mapstructure:"size"`
}

type SymbologyConfig struct {
	Policy string `mapstructure:"policy"`
}

type ExportConfig struct {
	LayerName string `mapstructure:"layer_name"`
}

type GdalConfig struct {
	TmpDir string `mapstructure:"tmp_dir"`
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("tiles.completed", 0)
	v.SetDefault("tiles.uncompleted", 1)
	v.SetDefault("tiles.spacing", 0.9)
	v.SetDefault("tiles.size", 256)

	v.SetDefault("symbology.policy", "degrade")
	v.SetDefault("export.layer_name", "cells")
	v.SetDefault("gdal.tmp_dir", "")
}

// 绑定环境变量，例如TILEMASK_TILES_SIZE对应tiles.size
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("invalid logging format: %q", c.Logging.Format)
	}
	if c.Tiles.Completed == c.Tiles.Uncompleted {
		return fmt.Errorf("completed and uncompleted priorities must differ, both are %d", c.Tiles.Completed)
	}
	if c.Tiles.Spacing <= 0 || c.Tiles.Spacing >= 1 {
		return fmt.Errorf("tiles spacing must be in (0, 1), got %v", c.Tiles.Spacing)
	}
	if c.Tiles.Size <= 0 {
		return fmt.Errorf("tiles size must be positive, got %d", c.Tiles.Size)
	}
	if _, err := symbology.ParsePolicy(c.Symbology.Policy); err != nil {
		return err
	}
	if c.Export.LayerName == "" {
		return fmt.Errorf("export layer name is required")
	}
	return nil
}
