package cells

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/geo"
	"github.com/wgdzlh/tilemask/raster"

	"github.com/paulmach/orb"
)

type MosaicWriter interface {
	WriteMosaic(path string, m *raster.Mosaic) error
}

// 带地理参考的单一类型影像：所有波段同类型，持有变换、外框与坐标系
type Image struct {
	Collection
	dtype     raster.DType
	transform geo.AffineTransform
	frame     orb.Polygon
	crs       string
	metadata  map[string]string
}

// 构建无波段的影像
func NewImage(t geo.AffineTransform, rows, cols int, dt raster.DType, crs string) (*Image, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: dtype %s", errs.ErrType, dt)
	}
	geoms, err := geo.Grid(t, rows, cols)
	if err != nil {
		return nil, err
	}
	return &Image{
		Collection: Collection{
			bands: map[string]*raster.Array{},
			rows:  rows,
			cols:  cols,
			geoms: geoms,
		},
		dtype:     dt,
		transform: t,
		frame:     geo.Frame(t, rows, cols),
		crs:       crs,
		metadata:  map[string]string{},
	}, nil
}

func ImageFromMosaic(m *raster.Mosaic) (*Image, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	im, err := NewImage(geo.AffineTransform(m.Transform), m.Rows(), m.Cols(), m.DType(), m.CRS)
	if err != nil {
		return nil, err
	}
	inits := make([]BandInit, len(m.Bands))
	for i, b := range m.Bands {
		inits[i] = BandInit{Name: m.Names[i], Array: b}
	}
	if err = im.AddBands(inits, false); err != nil {
		return nil, err
	}
	for k, v := range m.Metadata {
		im.metadata[k] = v
	}
	return im, nil
}

func (im *Image) DType() raster.DType {
	return im.dtype
}

func (im *Image) Transform() geo.AffineTransform {
	return im.transform
}

func (im *Image) Frame() orb.Polygon {
	return im.frame
}

func (im *Image) CRS() string {
	return im.crs
}

func (im *Image) Metadata() map[string]string {
	return im.metadata
}

func (im *Image) String() string {
	return fmt.Sprintf("Image(bands=%v, shape=(%d, %d), dtype=%s)", im.names, im.rows, im.cols, im.dtype)
}

// 只能取连续矩形（步长为1），新变换原点为所取左上像元的左上角
func (im *Image) Select(sel BandSelector, rows, cols Range) (*Image, error) {
	if rows.step() != 1 || cols.step() != 1 {
		return nil, fmt.Errorf("%w: image selection needs step 1", errs.ErrShape)
	}
	names, err := im.resolve(sel)
	if err != nil {
		return nil, err
	}
	ri, ci, err := im.window(rows, cols)
	if err != nil {
		return nil, err
	}
	t := im.transform.Shift(ri[0], ci[0])
	sub := &Image{
		Collection: *im.subset(names, ri, ci),
		dtype:      im.dtype,
		transform:  t,
		frame:      geo.Frame(t, len(ri), len(ci)),
		crs:        im.crs,
		metadata:   make(map[string]string, len(im.metadata)),
	}
	for k, v := range im.metadata {
		sub.metadata[k] = v
	}
	return sub, nil
}

// 添加波段，类型强制为影像类型
func (im *Image) AddBand(name string, arr *raster.Array, replace bool) error {
	return im.Collection.AddBand(name, arr, im.dtype, replace)
}

func (im *Image) AddBands(inits []BandInit, replace bool) error {
	return im.Collection.AddBands(inits, im.dtype, replace)
}

func (im *Image) ExportVector(tb VectorWriter, path string, opts ExportOptions) (int, error) {
	return im.exportVector(tb, path, im.crs, opts)
}

func (im *Image) ToMosaic() *raster.Mosaic {
	m := &raster.Mosaic{
		Names:     im.BandNames(),
		Bands:     make([]*raster.Array, len(im.names)),
		Transform: im.transform,
		CRS:       im.crs,
		Metadata:  make(map[string]string, len(im.metadata)),
	}
	for i, n := range im.names {
		m.Bands[i] = im.bands[n]
	}
	for k, v := range im.metadata {
		m.Metadata[k] = v
	}
	return m
}

func (im *Image) WriteTIFF(tb MosaicWriter, path string) error {
	return tb.WriteMosaic(path, im.ToMosaic())
}
