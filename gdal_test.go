package tilemask

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/raster"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x, y, size float64) GdalGeo {
	ring := orb.Ring{{x, y}, {x + size, y}, {x + size, y - size}, {x, y - size}, {x, y}}
	b, err := wkb.Marshal(orb.Polygon{ring})
	if err != nil {
		panic(err)
	}
	return b
}

func TestTiffDataType(t *testing.T) {
	tests := []struct {
		in   raster.DType
		want godal.DataType
	}{
		{raster.Uint8, godal.Byte},
		{raster.Int8, godal.Int8},
		{raster.Uint16, godal.UInt16},
		{raster.Int32, godal.Int32},
		{raster.Int64, godal.Float64},
		{raster.Uint64, godal.Float64},
		{raster.Float32, godal.Float32},
		{raster.Float64, godal.Float64},
	}
	for _, tt := range tests {
		got, err := tiffDataType(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.in.String())
	}
	_, err := tiffDataType(raster.Unknown)
	assert.ErrorIs(t, err, errs.ErrType)
}

func TestFieldKindOf(t *testing.T) {
	assert.Equal(t, FieldInteger, FieldKindOf(raster.Int32))
	assert.Equal(t, FieldInteger, FieldKindOf(raster.Uint16))
	assert.Equal(t, FieldInteger64, FieldKindOf(raster.Uint32))
	assert.Equal(t, FieldInteger64, FieldKindOf(raster.Int64))
	assert.Equal(t, FieldReal, FieldKindOf(raster.Float32))
}

func TestVectorDriverName(t *testing.T) {
	name, err := VectorDriverName("/a/b.GPKG")
	require.NoError(t, err)
	assert.Equal(t, GPKG_DRIVER_NAME, name)
	name, err = VectorDriverName("x.json")
	require.NoError(t, err)
	assert.Equal(t, GEOJSON_DRIVER_NAME, name)
	_, err = VectorDriverName("x.kml")
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestPrioritySQL(t *testing.T) {
	sql := prioritySQL("my layer", "class", []string{"water", "o'clock"})
	assert.Equal(t, `SELECT * FROM "my layer" ORDER BY CASE CAST("class" AS TEXT) WHEN 'water' THEN 2 WHEN 'o''clock' THEN 1 ELSE 0 END`, sql)
}

func TestUnionParts(t *testing.T) {
	g := NewGdalToolbox()
	parts, err := g.UnionParts([]GdalGeo{square(0, 0, 1), square(1, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, parts, 1)

	parts, err = g.UnionParts([]GdalGeo{square(0, 0, 1), square(5, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, parts, 2)

	simp, err := g.Simplify(parts[0], 0.1)
	require.NoError(t, err)
	assert.Len(t, simp, 1)

	line, err := wkb.Marshal(orb.LineString{{0, 0}, {1, 1}})
	require.NoError(t, err)
	_, err = g.UnionParts([]GdalGeo{square(0, 0, 1), line})
	assert.ErrorIs(t, err, ErrGdalWrongGeoType)
	_, err = g.Simplify(line, 0.1)
	assert.ErrorIs(t, err, ErrGdalWrongGeoType)
}

func TestWriteFeatures(t *testing.T) {
	g := NewGdalToolbox()
	out := filepath.Join(t.TempDir(), "cells.gpkg")
	fields := []Field{{Name: "class", Kind: FieldInteger}, {Name: "score", Kind: FieldReal}}
	feats := []Feature{
		{Geom: square(0, 0, 1), Values: []float64{1, 0.5}},
		{Geom: square(1, 0, 1), Values: []float64{2, 0.25}},
	}
	cnt, err := g.WriteFeatures(out, "", "", fields, feats)
	require.NoError(t, err)
	assert.Equal(t, 2, cnt)

	// 已存在的输出被替换
	cnt, err = g.WriteFeatures(out, "", "", fields, feats[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, cnt)

	_, err = g.WriteFeatures(out, "", "", fields, []Feature{{Geom: square(0, 0, 1)}})
	assert.ErrorIs(t, err, ErrFieldMismatch)

	_, err = g.WriteFeatures(filepath.Join(t.TempDir(), "missing", "a.shp"), "", "", fields, feats)
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestWriteFeaturesFailureLeavesNoOutput(t *testing.T) {
	g := NewGdalToolbox()
	fields := []Field{{Name: "class", Kind: FieldInteger}}
	feats := []Feature{
		{Geom: square(0, 0, 1), Values: []float64{1}},
		{Geom: GdalGeo{1, 2, 3}, Values: []float64{2}},
	}
	for _, name := range []string{"cells.gpkg", "cells.shp"} {
		out := filepath.Join(t.TempDir(), name)
		cnt, err := g.WriteFeatures(out, "", "", fields, feats)
		assert.Error(t, err, name)
		assert.Zero(t, cnt, name)
		assert.NoFileExists(t, out, name)
	}
}

func TestMosaicTif(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	a, err := raster.FromValues(2, 3, raster.Uint16, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	b := raster.NewArray(2, 3, raster.Uint16)
	b.Fill(7)
	m := &raster.Mosaic{
		Names:     []string{"class", "extra"},
		Bands:     []*raster.Array{a, b},
		Transform: [6]float64{10, 1, 0, 20, 0, -1},
		Metadata:  map[string]string{"tilemask_symbology": "{}"},
	}
	out := filepath.Join(t.TempDir(), "mask.tif")
	require.NoError(t, g.WriteMosaic(out, m))

	info, err := g.RasterInfo(out)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Rows)
	assert.Equal(t, 3, info.Cols)
	assert.Equal(t, raster.Uint16, info.DType)

	got, err := g.ReadMosaic(out)
	require.NoError(t, err)
	assert.Equal(t, m.Names, got.Names)
	assert.Equal(t, m.Transform, got.Transform)
	assert.Equal(t, a.Data, got.Bands[0].Data)
	assert.Equal(t, "{}", got.Metadata["tilemask_symbology"])

	err = g.WriteMosaic(filepath.Join(t.TempDir(), "mask.png"), m)
	assert.ErrorIs(t, err, errs.ErrPath)
}

func TestMosaicTifDTypes(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	dir := t.TempDir()
	for _, dt := range []raster.DType{raster.Int8, raster.Uint8, raster.Int16, raster.Uint16, raster.Int32,
		raster.Uint32, raster.Int64, raster.Uint64, raster.Float32, raster.Float64} {
		t.Run(dt.String(), func(t *testing.T) {
			lo, hi := dt.Range()
			switch dt {
			case raster.Int64:
				lo, hi = -(1 << 40), 1<<40+3
			case raster.Uint64:
				lo, hi = 0, 1<<50+1
			case raster.Float32, raster.Float64:
				lo, hi = -2.25, 1.5
			}
			a, err := raster.FromValues(2, 2, dt, []float64{lo, hi, 0, 1})
			require.NoError(t, err)
			m := &raster.Mosaic{
				Names:     []string{"v"},
				Bands:     []*raster.Array{a},
				Transform: [6]float64{0, 1, 0, 2, 0, -1},
				Metadata:  map[string]string{"k": "v"},
			}
			out := filepath.Join(dir, dt.String()+".tif")
			require.NoError(t, g.WriteMosaic(out, m))

			info, err := g.RasterInfo(out)
			require.NoError(t, err)
			assert.Equal(t, dt, info.DType)

			got, err := g.ReadMosaic(out)
			require.NoError(t, err)
			assert.Equal(t, dt, got.DType())
			assert.Equal(t, a.Data, got.Bands[0].Data)
			assert.Equal(t, "v", got.Metadata["k"])
			assert.NotContains(t, got.Metadata, DTYPE_METADATA_KEY)
		})
	}
}

func TestRasterize(t *testing.T) {
	g := NewGdalToolbox(t.TempDir())
	vec := filepath.Join(t.TempDir(), "labels.gpkg")
	fields := []Field{{Name: "class", Kind: FieldInteger}}
	_, err := g.WriteFeatures(vec, "labels", "", fields, []Feature{
		{Geom: square(0, 4, 4), Values: []float64{1}},
		{Geom: square(0, 4, 2), Values: []float64{2}},
	})
	require.NoError(t, err)

	opts := RasterizeOptions{
		VectorPath:     vec,
		Attribute:      "class",
		Rows:           4,
		Cols:           4,
		Transform:      [6]float64{0, 1, 0, 4, 0, -1},
		PriorityField:  "class",
		PriorityValues: []string{"1"},
		DType:          raster.Uint8,
	}
	arr, err := g.Rasterize(opts)
	require.NoError(t, err)
	assert.Equal(t, raster.Uint8, arr.DType)
	// class=1优先，覆盖左上角的class=2
	assert.Equal(t, 1.0, arr.At(0, 0))

	opts.PriorityValues = []string{"2", "1"}
	arr, err = g.Rasterize(opts)
	require.NoError(t, err)
	assert.Equal(t, 2.0, arr.At(0, 0))
	assert.Equal(t, 1.0, arr.At(3, 3))

	opts.Transform = [6]float64{0, 1, 0.5, 4, 0, -1}
	_, err = g.Rasterize(opts)
	assert.ErrorIs(t, err, errs.ErrShape)

	entries, err := os.ReadDir(g.TmpDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
