package main

import (
	"fmt"

	"github.com/wgdzlh/tilemask/merge"

	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge two annotated tile projects into one manifest and mosaic",
	Long: `Merge combines two manifests over the same tile grid. A tile completed in
only one project is promoted when it overlaps a tile completed in the other one.
Pixels of tiles completed in the first project always win.`,
	Args: cobra.NoArgs,
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.String("manifest1", "", "first manifest CSV")
	f.String("manifest2", "", "second manifest CSV")
	f.String("mosaic1", "", "first mosaic (default: the manifest filename column)")
	f.String("mosaic2", "", "second mosaic (default: the manifest filename column)")
	f.String("out-manifest", "", "merged manifest CSV")
	f.String("out-mosaic", "", "merged mosaic GeoTIFF")
	for _, n := range []string{"manifest1", "manifest2", "out-manifest", "out-mosaic"} {
		mergeCmd.MarkFlagRequired(n)
	}
}

func runMerge(cmd *cobra.Command, args []string) (err error) {
	p, err := policy()
	if err != nil {
		return
	}
	f := cmd.Flags()
	var (
		in  merge.Input
		out merge.Output
	)
	in.Manifest1, _ = f.GetString("manifest1")
	in.Manifest2, _ = f.GetString("manifest2")
	in.Mosaic1, _ = f.GetString("mosaic1")
	in.Mosaic2, _ = f.GetString("mosaic2")
	out.ManifestPath, _ = f.GetString("out-manifest")
	out.MosaicPath, _ = f.GetString("out-mosaic")

	res, err := merge.NewMerger(toolbox(), priorities(), p).Merge(cmd.Context(), in, out)
	if err != nil {
		return
	}
	s := res.Stats
	fmt.Fprintf(cmd.OutOrStdout(), "completed only in 1: %d, only in 2: %d, in both: %d, overlapping: %d\n",
		s.OneNotTwo, s.TwoNotOne, s.Both, s.Overlap)
	return
}
