package main

import (
	"fmt"
	"math/rand"
	"path/filepath"

	"github.com/wgdzlh/tilemask/tiles"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Generate and inspect tile grids",
}

var tilesCreateCmd = &cobra.Command{
	Use:   "create <raster>",
	Short: "Create a tile manifest and a blank mask for a raster",
	Args:  cobra.ExactArgs(1),
	RunE:  runTilesCreate,
}

var tilesOverlapsCmd = &cobra.Command{
	Use:   "overlaps <manifest>",
	Short: "List the tiles each tile of a manifest overlaps",
	Args:  cobra.ExactArgs(1),
	RunE:  runTilesOverlaps,
}

func init() {
	f := tilesCreateCmd.Flags()
	f.String("manifest", "", "output manifest CSV")
	f.String("mask", "", "output mask GeoTIFF (default <raster>_mask.tif next to the manifest)")
	f.Bool("no-mask", false, "do not create a mask, the manifest refers to the raster")
	f.Int("size", 256, "tile size in pixels")
	f.Float64("spacing", 0.9, "tile spacing as a fraction of the tile size")
	f.Int("step", 0, "tile spacing in pixels, overrides --spacing")
	f.String("anchor", "", "top-left corner row,col of one tile (default random)")
	f.String("bounds", "", "pixel bounds rowMin,colMin,rowMax,colMax")
	f.String("bounds-wkt", "", "polygon in map coordinates, keep tiles whose centre lies inside")
	f.StringSlice("bands", nil, "mask band names")
	f.Int64("seed", 0, "random seed for the anchor")
	tilesCreateCmd.MarkFlagRequired("manifest")

	viper.BindPFlag("tiles.size", f.Lookup("size"))
	viper.BindPFlag("tiles.spacing", f.Lookup("spacing"))

	tilesCmd.AddCommand(tilesCreateCmd, tilesOverlapsCmd)
}

func intList(s string, n int, name string) ([]int, error) {
	vs := utils.StrToInts(s, ",")
	if len(vs) != n {
		return nil, fmt.Errorf("--%s needs %d comma separated integers, got %q", name, n, s)
	}
	return vs, nil
}

func runTilesCreate(cmd *cobra.Command, args []string) (err error) {
	f := cmd.Flags()
	pr := priorities()
	opts := tiles.ProjectOptions{
		Raster:     args[0],
		TileSize:   tiles.Square(cfg.Tiles.Size),
		Spacing:    tiles.Fraction(cfg.Tiles.Spacing),
		Priorities: &pr,
	}
	opts.ManifestPath, _ = f.GetString("manifest")
	opts.BandNames, _ = f.GetStringSlice("bands")
	if step, _ := f.GetInt("step"); step > 0 {
		opts.Spacing = tiles.Step(step)
	}
	if noMask, _ := f.GetBool("no-mask"); !noMask {
		opts.MaskPath, _ = f.GetString("mask")
		if opts.MaskPath == "" {
			opts.MaskPath = filepath.Join(filepath.Dir(opts.ManifestPath), utils.GetFilenameWithoutExt(opts.Raster)+"_mask"+utils.FILE_EXT_TIF)
		}
	}
	if s, _ := f.GetString("anchor"); s != "" {
		vs, e := intList(s, 2, "anchor")
		if e != nil {
			return e
		}
		opts.Anchor = &[2]int{vs[0], vs[1]}
	}
	if s, _ := f.GetString("bounds"); s != "" {
		vs, e := intList(s, 4, "bounds")
		if e != nil {
			return e
		}
		opts.Bounds = &[4]int{vs[0], vs[1], vs[2], vs[3]}
	}
	if s, _ := f.GetString("bounds-wkt"); s != "" {
		g, e := wkt.Unmarshal(s)
		if e != nil {
			return fmt.Errorf("parse --bounds-wkt: %w", e)
		}
		p, ok := g.(orb.Polygon)
		if !ok {
			return fmt.Errorf("--bounds-wkt must be a POLYGON, got %s", g.GeoJSONType())
		}
		opts.BoundsPolygon = p
	}
	if seed, _ := f.GetInt64("seed"); seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	m, err := tiles.CreateProject(toolbox(), opts)
	if err != nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d tiles written to %s\n", len(m.Tiles), opts.ManifestPath)
	return
}

func runTilesOverlaps(cmd *cobra.Command, args []string) (err error) {
	m, err := tiles.ReadManifest(args[0])
	if err != nil {
		return
	}
	if !m.HasGeometry {
		return fmt.Errorf("manifest %s has no x, y, width, height columns", args[0])
	}
	m.SortByPosition()
	ovs, err := m.Overlaps()
	if err != nil {
		return
	}
	out := cmd.OutOrStdout()
	for i, t := range m.Tiles {
		fmt.Fprintf(out, "%d\tx=%d y=%d w=%d h=%d priority=%d\toverlaps=%v\n", i, t.X, t.Y, t.Width, t.Height, t.Priority, ovs[i])
	}
	return
}
