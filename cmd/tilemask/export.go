package main

import (
	"fmt"

	"github.com/wgdzlh/tilemask/cells"
	"github.com/wgdzlh/tilemask/symbology"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export <mosaic> <vector>",
	Short: "Export mosaic pixels as polygons (.shp, .gpkg or .geojson)",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("layer", "cells", "output layer name")
	f.String("dissolve", "", "merge adjacent pixels sharing this band's value")
	f.Bool("keep-only", false, "keep only the dissolve band as attribute")
	f.Float64("simplify", 0, "simplify tolerance in map units")
	f.Float64Slice("null", nil, "values treated as null in every band")
	f.Bool("symbology-nulls", false, "take per band null values from the mosaic symbology")
	f.StringSlice("bands", nil, "bands to export (default all)")
	f.String("window", "", "pixel window rowStart,colStart,rowStop,colStop")

	viper.BindPFlag("export.layer_name", f.Lookup("layer"))
}

// 从符号化中取出各波段的空值
func symbologyNulls(md map[string]string, p symbology.Policy) (cells.Nulls, error) {
	sym, err := symbology.FromMetadata(md, p)
	if err != nil {
		return cells.Nulls{}, err
	}
	per := make(map[string][]float64, len(sym))
	for name, b := range sym {
		if v, ok := b.NullValue(); ok {
			per[name] = []float64{v}
		}
	}
	return cells.NullsPerBand(per), nil
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	p, err := policy()
	if err != nil {
		return
	}
	tb := toolbox()
	m, err := tb.ReadMosaic(args[0])
	if err != nil {
		return
	}
	im, err := cells.ImageFromMosaic(m)
	if err != nil {
		return
	}
	f := cmd.Flags()
	sel := cells.AllBands()
	if names, _ := f.GetStringSlice("bands"); len(names) > 0 {
		sel = cells.Bands(names...)
	}
	rows, cols := cells.All(), cells.All()
	if s, _ := f.GetString("window"); s != "" {
		vs, e := intList(s, 4, "window")
		if e != nil {
			return e
		}
		rows, cols = cells.Span(vs[0], vs[2]), cells.Span(vs[1], vs[3])
	}
	if im, err = im.Select(sel, rows, cols); err != nil {
		return
	}

	opts := cells.ExportOptions{LayerName: cfg.Export.LayerName}
	opts.DissolveBy, _ = f.GetString("dissolve")
	opts.KeepOnlyDissolveBand, _ = f.GetBool("keep-only")
	opts.SimplifyTolerance, _ = f.GetFloat64("simplify")
	if useSym, _ := f.GetBool("symbology-nulls"); useSym {
		if opts.Nulls, err = symbologyNulls(im.Metadata(), p); err != nil {
			return
		}
	} else if vs, _ := f.GetFloat64Slice("null"); len(vs) > 0 {
		opts.Nulls = cells.NullsAll(vs...)
	}
	cnt, err := im.ExportVector(tb, args[1], opts)
	if err != nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d features written to %s\n", cnt, args[1])
	return
}
