package cells

import (
	"path/filepath"
	"testing"

	"github.com/wgdzlh/tilemask"
	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/geo"
	"github.com/wgdzlh/tilemask/raster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTransform = geo.AffineTransform{100, 1, 0, 200, 0, -1}

// 记录写出的要素，合并时每组视为一个面
type recorder struct {
	fields   []tilemask.Field
	features []tilemask.Feature
}

func (r *recorder) UnionParts(gs []tilemask.GdalGeo) ([]tilemask.GdalGeo, error) {
	return gs[:1], nil
}

func (r *recorder) Simplify(g tilemask.GdalGeo, _ float64) ([]tilemask.GdalGeo, error) {
	return []tilemask.GdalGeo{g}, nil
}

func (r *recorder) WriteFeatures(_, _, _ string, fields []tilemask.Field, features []tilemask.Feature) (int, error) {
	r.fields, r.features = fields, features
	return len(features), nil
}

func mustArray(t *testing.T, rows, cols int, dt raster.DType, vs ...float64) *raster.Array {
	t.Helper()
	a, err := raster.FromValues(rows, cols, dt, vs)
	require.NoError(t, err)
	return a
}

func newTestImage(t *testing.T) *Image {
	t.Helper()
	im, err := NewImage(testTransform, 3, 4, raster.Uint8, "")
	require.NoError(t, err)
	require.NoError(t, im.AddBand("class", mustArray(t, 3, 4, raster.Uint8,
		0, 1, 1, 2,
		0, 1, 2, 2,
		3, 3, 3, 0), false))
	require.NoError(t, im.AddBand("score", nil, false))
	return im
}

func TestSelectRepeatable(t *testing.T) {
	im := newTestImage(t)
	a, err := im.Select(Bands("class"), Span(1, 3), Span(1, 3))
	require.NoError(t, err)
	b, err := im.Select(Bands("class"), Span(1, 3), Span(1, 3))
	require.NoError(t, err)
	ba, _ := a.Band("class")
	bb, _ := b.Band("class")
	assert.Equal(t, ba.Data, bb.Data)
	assert.Equal(t, []float64{1, 2, 3, 3}, ba.Data)
	assert.Equal(t, a.Geometries().Ring(0), b.Geometries().Ring(0))
	assert.Equal(t, im.Geometries().At(1, 1), a.Geometries().At(0, 0))

	assert.Equal(t, geo.AffineTransform{101, 1, 0, 199, 0, -1}, a.Transform())
	x, y := a.Transform().XY(2, 2)
	assert.Equal(t, a.Frame()[0][2][0], x)
	assert.Equal(t, a.Frame()[0][2][1], y)
}

func TestSelectErrors(t *testing.T) {
	im := newTestImage(t)
	_, err := im.Select(AllBands(), Stepped(0, 3, 2), All())
	assert.ErrorIs(t, err, errs.ErrShape)
	_, err = im.Select(Bands("nope"), All(), All())
	assert.ErrorIs(t, err, ErrBandNotFound)
	assert.ErrorIs(t, err, errs.ErrShape)
	_, err = im.Select(AllBands(), Span(2, 2), All())
	assert.ErrorIs(t, err, errs.ErrShape)
	_, err = im.Select(Bands("class", "class"), All(), All())
	assert.ErrorIs(t, err, errs.ErrShape)
	_, err = im.Collection.Select(BandIndices(0, -2), All(), All())
	assert.ErrorIs(t, err, errs.ErrShape)

	// 通用集合允许步长
	c, err := im.Collection.Select(BandIndices(0), Stepped(0, 3, 2), At(-1))
	require.NoError(t, err)
	rows, cols := c.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 1, cols)
	band, _ := c.Band("class")
	assert.Equal(t, []float64{2, 0}, band.Data)
}

func TestAssign(t *testing.T) {
	im := newTestImage(t)
	require.NoError(t, im.Assign(Bands("class"), At(0), Span(0, 2), 300))
	band, _ := im.Band("class")
	assert.Equal(t, []float64{255, 255, 1, 2}, band.Data[:4])
	err := im.Assign(AllBands(), All(), All(), 1)
	assert.ErrorIs(t, err, errs.ErrShape)
}

func TestAddBandReplace(t *testing.T) {
	im := newTestImage(t)
	err := im.AddBand("class", nil, false)
	assert.ErrorIs(t, err, ErrBandExists)

	require.NoError(t, im.AddBand("class", nil, true))
	band, _ := im.Band("class")
	assert.Equal(t, make([]float64, 12), band.Data)
	assert.Equal(t, []string{"class", "score"}, im.BandNames())

	// 类型强制为影像类型
	require.NoError(t, im.AddBand("f", mustArray(t, 3, 4, raster.Float64, 1.5, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), false))
	f, _ := im.Band("f")
	assert.Equal(t, raster.Uint8, f.DType)
	assert.Equal(t, 1.0, f.At(0, 0))

	err = im.AddBand("bad", raster.NewArray(2, 2, raster.Uint8), false)
	assert.ErrorIs(t, err, errs.ErrShape)

	c, err := NewCollection(im.Geometries(), nil, nil)
	require.NoError(t, err)
	require.NoError(t, c.AddBand("z", nil, raster.Unknown, false))
	z, _ := c.Band("z")
	assert.Equal(t, raster.Float64, z.DType)

	err = c.AddBands([]BandInit{{Name: "a"}, {Name: "z"}}, raster.Int16, false)
	assert.ErrorIs(t, err, ErrBandExists)
	assert.Equal(t, []string{"z"}, c.BandNames())
}

func TestToArray(t *testing.T) {
	im := newTestImage(t)
	s, err := im.ToArray()
	require.NoError(t, err)
	assert.Equal(t, 2, s.Bands)
	assert.Equal(t, 3.0, s.At(0, 2, 0))
	assert.Equal(t, 0.0, s.At(1, 2, 0))
}

func TestNullFilters(t *testing.T) {
	im := newTestImage(t)
	out := filepath.Join(t.TempDir(), "cells.gpkg")

	// 列表形式：任一波段非空即保留；score全为0，所以只看class
	rec := &recorder{}
	n, err := im.ExportVector(rec, out, ExportOptions{Nulls: NullsAll(0)})
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Len(t, rec.fields, 4)
	assert.Equal(t, tilemask.FIELD_ROW, rec.fields[2].Name)

	n, err = im.ExportVector(rec, out, ExportOptions{Nulls: NullsAll(0, 1, 2, 3)})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// 分波段形式：列出的波段须全部非空
	require.NoError(t, im.Assign(Bands("score"), At(0), All(), 5))
	n, err = im.ExportVector(rec, out, ExportOptions{Nulls: NullsPerBand(map[string][]float64{"class": {0}, "score": {0}, "absent": {1}})})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// 同样的值用列表形式：第0行score非空，其余行看class
	n, err = im.ExportVector(rec, out, ExportOptions{Nulls: NullsAll(0)})
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// 只保留合并波段时，分波段过滤只看合并波段
	n, err = im.ExportVector(rec, out, ExportOptions{
		DissolveBy:           "class",
		KeepOnlyDissolveBand: true,
		Nulls:                NullsPerBand(map[string][]float64{"class": {3}, "score": {0}}),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n) // 0,1,2三组
	require.Len(t, rec.fields, 1)
	assert.Equal(t, []float64{0}, rec.features[0].Values)
}

func TestExportPathErrors(t *testing.T) {
	im := newTestImage(t)
	_, err := im.ExportVector(&recorder{}, filepath.Join(t.TempDir(), "cells.txt"), ExportOptions{})
	assert.ErrorIs(t, err, errs.ErrPath)
	_, err = im.ExportVector(&recorder{}, filepath.Join(t.TempDir(), "no", "cells.gpkg"), ExportOptions{})
	assert.ErrorIs(t, err, errs.ErrPath)
	_, err = im.ExportVector(&recorder{}, filepath.Join(t.TempDir(), "cells.gpkg"), ExportOptions{DissolveBy: "nope"})
	assert.ErrorIs(t, err, ErrBandNotFound)
}

func TestDissolveUniformAndDistinct(t *testing.T) {
	tb := tilemask.NewGdalToolbox(t.TempDir())
	im, err := NewImage(testTransform, 4, 5, raster.Int32, "")
	require.NoError(t, err)
	require.NoError(t, im.AddBand("uniform", nil, false))
	distinct := raster.NewArray(4, 5, raster.Int32)
	for i := range distinct.Data {
		distinct.Data[i] = float64(i)
	}
	require.NoError(t, im.AddBand("distinct", distinct, false))

	n, err := im.ExportVector(tb, filepath.Join(t.TempDir(), "u.gpkg"), ExportOptions{DissolveBy: "uniform", KeepOnlyDissolveBand: true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = im.ExportVector(tb, filepath.Join(t.TempDir(), "d.shp"), ExportOptions{DissolveBy: "distinct", SimplifyTolerance: 0.1})
	require.NoError(t, err)
	assert.Equal(t, 20, n)

	// 同值但不相连的像元拆为多个要素
	require.NoError(t, im.Assign(Bands("uniform"), Span(1, 3), All(), 7))
	n, err = im.ExportVector(tb, filepath.Join(t.TempDir(), "split.geojson"), ExportOptions{DissolveBy: "uniform", KeepOnlyDissolveBand: true})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMosaicRoundTrip(t *testing.T) {
	im := newTestImage(t)
	im.Metadata()["k"] = "v"
	m := im.ToMosaic()
	back, err := ImageFromMosaic(m)
	require.NoError(t, err)
	assert.Equal(t, im.BandNames(), back.BandNames())
	assert.Equal(t, "v", back.Metadata()["k"])
	assert.Equal(t, im.Transform(), back.Transform())
}
