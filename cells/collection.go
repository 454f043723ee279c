// Package cells 把栅格的每个像元视为可寻址的多边形：按行列选取、改写波段，并导出为矢量
package cells

import (
	"fmt"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/geo"
	"github.com/wgdzlh/tilemask/raster"
	"github.com/wgdzlh/tilemask/utils"
)

var (
	ErrBandNotFound = fmt.Errorf("band not found: %w", errs.ErrShape)
	ErrBandExists   = fmt.Errorf("band already exists: %w", errs.ErrShape)
)

// 待添加的波段，Array为空时填0
type BandInit struct {
	Name  string
	Array *raster.Array
}

// 命名波段与像元多边形的集合，各波段类型可以不同
type Collection struct {
	names []string
	bands map[string]*raster.Array
	rows  int
	cols  int
	geoms *geo.GeometryList
}

func NewCollection(geoms *geo.GeometryList, names []string, arrs []*raster.Array) (*Collection, error) {
	if geoms == nil {
		return nil, fmt.Errorf("%w: nil geometry list", errs.ErrShape)
	}
	if len(names) != len(arrs) {
		return nil, fmt.Errorf("%w: %d names for %d arrays", errs.ErrShape, len(names), len(arrs))
	}
	if geoms.Len() != geoms.Rows*geoms.Cols {
		return nil, fmt.Errorf("%w: %d geometries for a %dx%d grid", errs.ErrShape, geoms.Len(), geoms.Rows, geoms.Cols)
	}
	c := &Collection{
		bands: make(map[string]*raster.Array, len(names)),
		rows:  geoms.Rows,
		cols:  geoms.Cols,
		geoms: geoms,
	}
	for i, n := range names {
		if err := c.AddBand(n, arrs[i], raster.Unknown, false); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collection) Shape() (rows, cols int) {
	return c.rows, c.cols
}

func (c *Collection) BandNames() []string {
	return append([]string(nil), c.names...)
}

func (c *Collection) Band(name string) (*raster.Array, bool) {
	a, ok := c.bands[name]
	return a, ok
}

func (c *Collection) Geometries() *geo.GeometryList {
	return c.geoms
}

func (c *Collection) String() string {
	return fmt.Sprintf("Collection(bands=[%s], shape=(%d, %d))", strings.Join(c.names, ", "), c.rows, c.cols)
}

// 解析选取的波段名；同一波段不能被选两次
func (c *Collection) resolve(sel BandSelector) (ret []string, err error) {
	switch {
	case sel.all:
		return c.BandNames(), nil
	case len(sel.idx) > 0:
		ret = make([]string, len(sel.idx))
		for i, k := range sel.idx {
			if k < 0 {
				k += len(c.names)
			}
			if k < 0 || k >= len(c.names) {
				return nil, fmt.Errorf("%w: index %d", ErrBandNotFound, sel.idx[i])
			}
			ret[i] = c.names[k]
		}
	default:
		for _, n := range sel.names {
			if _, ok := c.bands[n]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrBandNotFound, n)
			}
		}
		ret = append([]string(nil), sel.names...)
	}
	if utils.HasEmptyOrDup(ret) {
		return nil, fmt.Errorf("%w: band selected more than once in %q", errs.ErrShape, ret)
	}
	return
}

func (c *Collection) window(rows, cols Range) (ri, ci []int, err error) {
	if ri, err = rows.indices(c.rows); err != nil {
		return
	}
	if ci, err = cols.indices(c.cols); err != nil {
		return
	}
	if len(ri) == 0 || len(ci) == 0 {
		err = fmt.Errorf("%w: empty selection", errs.ErrShape)
	}
	return
}

// 选取波段与行列区间，返回新集合；几何按row*W+col映射，保持次序
func (c *Collection) Select(sel BandSelector, rows, cols Range) (*Collection, error) {
	names, err := c.resolve(sel)
	if err != nil {
		return nil, err
	}
	ri, ci, err := c.window(rows, cols)
	if err != nil {
		return nil, err
	}
	return c.subset(names, ri, ci), nil
}

func (c *Collection) subset(names []string, ri, ci []int) *Collection {
	s := &Collection{
		names: names,
		bands: make(map[string]*raster.Array, len(names)),
		rows:  len(ri),
		cols:  len(ci),
		geoms: c.geoms.Subset(ri, ci),
	}
	for _, n := range names {
		s.bands[n] = c.bands[n].Gather(ri, ci)
	}
	return s
}

// 对单个波段的行列区间赋值，值按波段类型转换
func (c *Collection) Assign(sel BandSelector, rows, cols Range, value float64) error {
	names, err := c.resolve(sel)
	if err != nil {
		return err
	}
	if len(names) != 1 {
		return fmt.Errorf("%w: assign needs exactly one band, got %d", errs.ErrShape, len(names))
	}
	ri, ci, err := c.window(rows, cols)
	if err != nil {
		return err
	}
	arr := c.bands[names[0]]
	for _, r := range ri {
		for _, col := range ci {
			arr.Set(r, col, value)
		}
	}
	return nil
}

func (c *Collection) prepareBand(name string, arr *raster.Array, dt raster.DType, replace bool) (string, *raster.Array, error) {
	name = utils.NormalizeName(name)
	if name == "" {
		return "", nil, fmt.Errorf("%w: empty band name", errs.ErrShape)
	}
	if _, ok := c.bands[name]; ok && !replace {
		return "", nil, fmt.Errorf("%w: %q", ErrBandExists, name)
	}
	if arr == nil {
		if dt == raster.Unknown {
			dt = raster.Float64
		}
		if !dt.Valid() {
			return "", nil, fmt.Errorf("%w: dtype %s", errs.ErrType, dt)
		}
		return name, raster.NewArray(c.rows, c.cols, dt), nil
	}
	if arr.Rows != c.rows || arr.Cols != c.cols || len(arr.Data) != c.rows*c.cols {
		return "", nil, fmt.Errorf("%w: band %q is %dx%d, want %dx%d", errs.ErrShape, name, arr.Rows, arr.Cols, c.rows, c.cols)
	}
	if !arr.DType.Valid() {
		return "", nil, fmt.Errorf("%w: band %q dtype %s", errs.ErrType, name, arr.DType)
	}
	if dt != raster.Unknown && dt != arr.DType {
		if !dt.Valid() {
			return "", nil, fmt.Errorf("%w: dtype %s", errs.ErrType, dt)
		}
		arr = arr.Astype(dt)
	}
	return name, arr, nil
}

func (c *Collection) putBand(name string, arr *raster.Array) {
	if _, ok := c.bands[name]; !ok {
		c.names = append(c.names, name)
	}
	c.bands[name] = arr
}

// 添加波段：arr为空时按dt填0（dt缺省为Float64）；replace=false时同名报错
func (c *Collection) AddBand(name string, arr *raster.Array, dt raster.DType, replace bool) error {
	name, arr, err := c.prepareBand(name, arr, dt, replace)
	if err != nil {
		return err
	}
	c.putBand(name, arr)
	return nil
}

// 批量添加，任一失败则不做任何修改
func (c *Collection) AddBands(inits []BandInit, dt raster.DType, replace bool) error {
	names := make([]string, len(inits))
	arrs := make([]*raster.Array, len(inits))
	seen := make(map[string]struct{}, len(inits))
	for i, b := range inits {
		name, arr, err := c.prepareBand(b.Name, b.Array, dt, replace)
		if err != nil {
			return err
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q given twice", ErrBandExists, name)
		}
		seen[name] = struct{}{}
		names[i], arrs[i] = name, arr
	}
	for i, n := range names {
		c.putBand(n, arrs[i])
	}
	return nil
}

// 按插入顺序堆叠所有波段
func (c *Collection) ToArray() (*raster.Stack, error) {
	arrs := make([]*raster.Array, len(c.names))
	for i, n := range c.names {
		arrs[i] = c.bands[n]
	}
	return raster.StackArrays(arrs)
}
