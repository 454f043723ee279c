package raster

import (
	"fmt"
	"sort"

	"github.com/wgdzlh/tilemask/errs"
)

// 二维数组，行优先存储；所有值以float64保存，并由DType约束
type Array struct {
	Rows  int
	Cols  int
	DType DType
	Data  []float64
}

func NewArray(rows, cols int, dt DType) *Array {
	return &Array{
		Rows:  rows,
		Cols:  cols,
		DType: dt,
		Data:  make([]float64, rows*cols),
	}
}

// 由行优先的值序列构造数组，值按dt转换
func FromValues(rows, cols int, dt DType, values []float64) (*Array, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: dtype %s is not numeric", errs.ErrType, dt)
	}
	if rows < 0 || cols < 0 || len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values cannot fill a %dx%d array", errs.ErrShape, len(values), rows, cols)
	}
	a := NewArray(rows, cols, dt)
	for i, v := range values {
		a.Data[i] = dt.Coerce(v)
	}
	return a, nil
}

func (a *Array) Len() int {
	return a.Rows * a.Cols
}

func (a *Array) Index(row, col int) int {
	return row*a.Cols + col
}

func (a *Array) At(row, col int) float64 {
	return a.Data[a.Index(row, col)]
}

// 按类型转换后写入
func (a *Array) Set(row, col int, v float64) {
	a.Data[a.Index(row, col)] = a.DType.Coerce(v)
}

func (a *Array) Fill(v float64) {
	v = a.DType.Coerce(v)
	for i := range a.Data {
		a.Data[i] = v
	}
}

func (a *Array) SameShape(b *Array) bool {
	return a.Rows == b.Rows && a.Cols == b.Cols
}

func (a *Array) Clone() *Array {
	c := *a
	c.Data = append([]float64(nil), a.Data...)
	return &c
}

// 转换为另一种类型的新数组
func (a *Array) Astype(dt DType) *Array {
	c := NewArray(a.Rows, a.Cols, dt)
	for i, v := range a.Data {
		c.Data[i] = dt.Coerce(v)
	}
	return c
}

// 按行、列下标列表取子数组
func (a *Array) Gather(rows, cols []int) *Array {
	c := NewArray(len(rows), len(cols), a.DType)
	k := 0
	for _, r := range rows {
		base := r * a.Cols
		for _, col := range cols {
			c.Data[k] = a.Data[base+col]
			k++
		}
	}
	return c
}

// 把src中[row,row+h)×[col,col+w)窗口的值复制到a的相同位置，窗口超出范围的部分被裁掉
func (a *Array) CopyWindow(src *Array, row, col, h, w int) {
	r0, r1 := clip(row, row+h, a.Rows)
	c0, c1 := clip(col, col+w, a.Cols)
	if r0 >= r1 || c0 >= c1 {
		return
	}
	for r := r0; r < r1; r++ {
		copy(a.Data[r*a.Cols+c0:r*a.Cols+c1], src.Data[r*src.Cols+c0:r*src.Cols+c1])
	}
}

// 去重后的升序取值
func (a *Array) Unique() []float64 {
	set := make(map[float64]struct{})
	for _, v := range a.Data {
		set[v] = struct{}{}
	}
	ret := make([]float64, 0, len(set))
	for v := range set {
		ret = append(ret, v)
	}
	sort.Float64s(ret)
	return ret
}

func clip(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}
