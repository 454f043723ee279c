package main

import (
	"fmt"
	"os"

	"github.com/wgdzlh/tilemask"
	"github.com/wgdzlh/tilemask/internal/config"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/symbology"
	"github.com/wgdzlh/tilemask/tiles"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tilemask",
	Short: "Tile-by-tile raster classification masks",
	Long: `tilemask prepares tiled annotation projects over a raster, merges two
independently annotated tile sets and converts masks between pixel grids and
polygon layers.

Examples:
  # Create a 256px tile grid and a blank mask for image.tif
  tilemask tiles create image.tif --manifest tiles.csv --bands class

  # Merge two annotated projects
  tilemask merge --manifest1 a.csv --manifest2 b.csv --out-manifest merged.csv --out-mosaic merged.tif

  # Export mask pixels as dissolved polygons
  tilemask export merged.tif classes.gpkg --dissolve class --symbology-nulls`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) (err error) {
		if cfg, err = config.Load(viper.GetViper()); err != nil {
			return
		}
		return log.Init(cfg.Logging.Level, cfg.Logging.Format)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./.tilemask.yaml)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")
	pf.String("tmp-dir", "", "directory for GDAL temporary files")
	pf.String("policy", "degrade", "malformed symbology handling (degrade, strict)")
	pf.Int("completed", 0, "priority value of a completed tile")
	pf.Int("uncompleted", 1, "priority value of an uncompleted tile")

	viper.BindPFlag("logging.level", pf.Lookup("log-level"))
	viper.BindPFlag("logging.format", pf.Lookup("log-format"))
	viper.BindPFlag("gdal.tmp_dir", pf.Lookup("tmp-dir"))
	viper.BindPFlag("symbology.policy", pf.Lookup("policy"))
	viper.BindPFlag("tiles.completed", pf.Lookup("completed"))
	viper.BindPFlag("tiles.uncompleted", pf.Lookup("uncompleted"))

	rootCmd.AddCommand(tilesCmd, mergeCmd, exportCmd, rasterizeCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".tilemask")
	}
	config.BindEnv(viper.GetViper())
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func toolbox() *tilemask.GdalToolbox {
	return tilemask.NewGdalToolbox(cfg.Gdal.TmpDir)
}

func priorities() tiles.Priorities {
	return tiles.Priorities{Completed: cfg.Tiles.Completed, Uncompleted: cfg.Tiles.Uncompleted}
}

func policy() (symbology.Policy, error) {
	return symbology.ParsePolicy(cfg.Symbology.Policy)
}
