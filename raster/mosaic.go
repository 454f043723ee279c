package raster

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
)

// 三维数组(band,row,col)，行优先
type Stack struct {
	Bands int
	Rows  int
	Cols  int
	DType DType
	Data  []float64
}

func (s *Stack) At(band, row, col int) float64 {
	return s.Data[(band*s.Rows+row)*s.Cols+col]
}

// 第i个波段的二维视图（共享底层数据）
func (s *Stack) Band(i int) *Array {
	n := s.Rows * s.Cols
	return &Array{Rows: s.Rows, Cols: s.Cols, DType: s.DType, Data: s.Data[i*n : (i+1)*n]}
}

// 按顺序堆叠多个同尺寸数组，类型取所有波段的提升类型
func StackArrays(arrs []*Array) (*Stack, error) {
	if len(arrs) == 0 {
		return &Stack{}, nil
	}
	s := &Stack{Bands: len(arrs), Rows: arrs[0].Rows, Cols: arrs[0].Cols, DType: arrs[0].DType}
	for _, a := range arrs[1:] {
		if !a.SameShape(arrs[0]) {
			return nil, fmt.Errorf("%w: cannot stack %dx%d with %dx%d", errs.ErrShape, a.Rows, a.Cols, s.Rows, s.Cols)
		}
		s.DType = Promote(s.DType, a.DType)
	}
	s.Data = make([]float64, 0, s.Bands*s.Rows*s.Cols)
	for _, a := range arrs {
		s.Data = append(s.Data, a.Data...)
	}
	return s, nil
}

// 镶嵌影像：有序波段 + 地理变换 + 坐标系 + 元数据
type Mosaic struct {
	Names     []string
	Bands     []*Array
	Transform [6]float64
	CRS       string
	Metadata  map[string]string
}

func (m *Mosaic) Rows() int {
	if len(m.Bands) == 0 {
		return 0
	}
	return m.Bands[0].Rows
}

func (m *Mosaic) Cols() int {
	if len(m.Bands) == 0 {
		return 0
	}
	return m.Bands[0].Cols
}

func (m *Mosaic) DType() DType {
	if len(m.Bands) == 0 {
		return Unknown
	}
	return m.Bands[0].DType
}

// 校验各波段尺寸、类型一致，名称数与波段数一致
func (m *Mosaic) Validate() error {
	if len(m.Bands) == 0 {
		return fmt.Errorf("%w: mosaic has no band", errs.ErrShape)
	}
	if len(m.Names) != len(m.Bands) {
		return fmt.Errorf("%w: %d names for %d bands", errs.ErrShape, len(m.Names), len(m.Bands))
	}
	first := m.Bands[0]
	if !first.DType.Valid() {
		return fmt.Errorf("%w: band dtype %s", errs.ErrType, first.DType)
	}
	for i, b := range m.Bands[1:] {
		if !b.SameShape(first) {
			return fmt.Errorf("%w: band %d is %dx%d, want %dx%d", errs.ErrShape, i+1, b.Rows, b.Cols, first.Rows, first.Cols)
		}
		if b.DType != first.DType {
			return fmt.Errorf("%w: band %d is %s, want %s", errs.ErrType, i+1, b.DType, first.DType)
		}
	}
	return nil
}

func (m *Mosaic) Clone() *Mosaic {
	c := &Mosaic{
		Names:     append([]string(nil), m.Names...),
		Bands:     make([]*Array, len(m.Bands)),
		Transform: m.Transform,
		CRS:       m.CRS,
		Metadata:  make(map[string]string, len(m.Metadata)),
	}
	for i, b := range m.Bands {
		c.Bands[i] = b.Clone()
	}
	for k, v := range m.Metadata {
		c.Metadata[k] = v
	}
	return c
}

// 把src在矩形(x,y,w,h)内的像元复制到m的所有波段，x为列、y为行
func (m *Mosaic) Paste(src *Mosaic, x, y, w, h int) {
	for i, b := range m.Bands {
		if i < len(src.Bands) {
			b.CopyWindow(src.Bands[i], y, x, h, w)
		}
	}
}
