// Package geo 处理栅格行列与地理坐标之间的仿射映射，以及逐像元多边形网格
package geo

import (
	"fmt"
	"math"

	"github.com/wgdzlh/tilemask/errs"
)

// GDAL次序的仿射变换系数：
// X = t[0] + col*t[1] + row*t[2]
// Y = t[3] + col*t[4] + row*t[5]
type AffineTransform [6]float64

func TransformFromSlice(s []float64) (t AffineTransform, err error) {
	if len(s) != 6 {
		err = fmt.Errorf("%w: transform needs 6 coefficients, got %d", errs.ErrShape, len(s))
		return
	}
	copy(t[:], s)
	err = t.Validate()
	return
}

// 像元宽、高不能为0
func (t AffineTransform) Validate() error {
	if t[1] == 0 || t[5] == 0 {
		return fmt.Errorf("%w: zero pixel size in transform %v", errs.ErrShape, [6]float64(t))
	}
	return nil
}

func (t AffineTransform) Rotated() bool {
	return t[2] != 0 || t[4] != 0
}

// 行列（可为小数，整数即像元角点）对应的地理坐标
func (t AffineTransform) XY(row, col float64) (x, y float64) {
	x = t[0] + col*t[1] + row*t[2]
	y = t[3] + col*t[4] + row*t[5]
	return
}

// 地理坐标对应的行列（小数）
func (t AffineTransform) RowCol(x, y float64) (row, col float64, err error) {
	det := t[1]*t[5] - t[2]*t[4]
	if det == 0 || math.IsNaN(det) {
		err = fmt.Errorf("%w: transform %v is not invertible", errs.ErrShape, [6]float64(t))
		return
	}
	dx, dy := x-t[0], y-t[3]
	col = (dx*t[5] - dy*t[2]) / det
	row = (dy*t[1] - dx*t[4]) / det
	return
}

// 原点移到(row,col)像元左上角，线性部分不变
func (t AffineTransform) Shift(row, col int) AffineTransform {
	t[0], t[3] = t.XY(float64(row), float64(col))
	return t
}
