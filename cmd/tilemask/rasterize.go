package main

import (
	"fmt"

	"github.com/wgdzlh/tilemask"
	"github.com/wgdzlh/tilemask/raster"

	"github.com/spf13/cobra"
)

var rasterizeCmd = &cobra.Command{
	Use:   "rasterize <vector> <mosaic>",
	Short: "Burn a polygon attribute into a single band mosaic on the grid of a reference raster",
	Args:  cobra.ExactArgs(2),
	RunE:  runRasterize,
}

func init() {
	f := rasterizeCmd.Flags()
	f.String("like", "", "reference raster giving size, transform and CRS")
	f.String("layer", "", "vector layer (default the first one)")
	f.String("attribute", "", "attribute burned into the pixels")
	f.Float64("nodata", 0, "value of pixels not covered by any feature")
	f.String("dtype", "uint8", "output data type")
	f.String("priority-field", "", "field ordering the burn")
	f.StringSlice("priority", nil, "field values in decreasing priority, listed values are burned last")
	f.String("band", "", "output band name (default the attribute)")
	rasterizeCmd.MarkFlagRequired("like")
	rasterizeCmd.MarkFlagRequired("attribute")
}

func runRasterize(cmd *cobra.Command, args []string) (err error) {
	f := cmd.Flags()
	tb := toolbox()
	like, _ := f.GetString("like")
	info, err := tb.RasterInfo(like)
	if err != nil {
		return
	}
	dts, _ := f.GetString("dtype")
	dt, err := raster.ParseDType(dts)
	if err != nil {
		return
	}
	opts := tilemask.RasterizeOptions{
		VectorPath: args[0],
		Rows:       info.Rows,
		Cols:       info.Cols,
		Transform:  info.Transform,
		CRS:        info.CRS,
		DType:      dt,
	}
	opts.Layer, _ = f.GetString("layer")
	opts.Attribute, _ = f.GetString("attribute")
	opts.NoData, _ = f.GetFloat64("nodata")
	opts.PriorityField, _ = f.GetString("priority-field")
	opts.PriorityValues, _ = f.GetStringSlice("priority")
	arr, err := tb.Rasterize(opts)
	if err != nil {
		return
	}
	name, _ := f.GetString("band")
	if name == "" {
		name = opts.Attribute
	}
	m := &raster.Mosaic{
		Names:     []string{name},
		Bands:     []*raster.Array{arr},
		Transform: info.Transform,
		CRS:       info.CRS,
		Metadata:  map[string]string{},
	}
	if err = tb.WriteMosaic(args[1], m); err != nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s rasterized to %s (%dx%d %s)\n", opts.Attribute, args[1], info.Rows, info.Cols, dt)
	return
}
