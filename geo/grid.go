package geo

import (
	"fmt"
	"math"

	"github.com/wgdzlh/tilemask/errs"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// 每个像元闭合环的点数
const RingSize = 5

// 像元多边形集合，按row*Cols+col顺序连续存放在同一个点切片中；
// 每个环依次为左上、右上、右下、左下、左上
type GeometryList struct {
	Rows   int
	Cols   int
	points []orb.Point
}

func (l *GeometryList) Len() int {
	return len(l.points) / RingSize
}

// 第i个像元的外环（只读视图）
func (l *GeometryList) Ring(i int) orb.Ring {
	return orb.Ring(l.points[i*RingSize : (i+1)*RingSize : (i+1)*RingSize])
}

func (l *GeometryList) Polygon(i int) orb.Polygon {
	return orb.Polygon{l.Ring(i)}
}

func (l *GeometryList) At(row, col int) orb.Polygon {
	return l.Polygon(row*l.Cols + col)
}

// 按行、列下标列表取子网格，保持行优先次序
func (l *GeometryList) Subset(rows, cols []int) *GeometryList {
	s := &GeometryList{
		Rows:   len(rows),
		Cols:   len(cols),
		points: make([]orb.Point, 0, len(rows)*len(cols)*RingSize),
	}
	for _, r := range rows {
		for _, c := range cols {
			i := (r*l.Cols + c) * RingSize
			s.points = append(s.points, l.points[i:i+RingSize]...)
		}
	}
	return s
}

// 由行列数、变换系数构建网格；withFrame时同时返回外框
func BuildGrid(transform []float64, shape []int, withFrame bool) (*GeometryList, orb.Polygon, error) {
	if len(shape) != 2 {
		return nil, nil, fmt.Errorf("%w: grid shape needs 2 entries, got %d", errs.ErrShape, len(shape))
	}
	t, err := TransformFromSlice(transform)
	if err != nil {
		return nil, nil, err
	}
	l, err := Grid(t, shape[0], shape[1])
	if err != nil {
		return nil, nil, err
	}
	var frame orb.Polygon
	if withFrame {
		frame = Frame(t, shape[0], shape[1])
	}
	return l, frame, nil
}

// 行列数以浮点给出时（如来自JSON），须为非负整数
func BuildGridFloat(transform []float64, shape []float64, withFrame bool) (*GeometryList, orb.Polygon, error) {
	ints := make([]int, len(shape))
	for i, v := range shape {
		if v != math.Trunc(v) || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, nil, fmt.Errorf("%w: grid shape entry %v is not an integer", errs.ErrType, v)
		}
		ints[i] = int(v)
	}
	return BuildGrid(transform, ints, withFrame)
}

func Grid(t AffineTransform, rows, cols int) (*GeometryList, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative grid shape (%d, %d)", errs.ErrShape, rows, cols)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Rotated() {
		return buildGeneral(t, rows, cols), nil
	}
	return buildAligned(t, rows, cols), nil
}

// 无旋转：行、列边界坐标线性插值
func buildAligned(t AffineTransform, rows, cols int) *GeometryList {
	l := &GeometryList{Rows: rows, Cols: cols}
	if rows == 0 || cols == 0 {
		return l
	}
	xs := floats.Span(make([]float64, cols+1), t[0], t[0]+float64(cols)*t[1])
	ys := floats.Span(make([]float64, rows+1), t[3], t[3]+float64(rows)*t[5])
	l.points = make([]orb.Point, 0, rows*cols*RingSize)
	for r := 0; r < rows; r++ {
		top, bottom := ys[r], ys[r+1]
		for c := 0; c < cols; c++ {
			left, right := xs[c], xs[c+1]
			l.points = append(l.points,
				orb.Point{left, top},
				orb.Point{right, top},
				orb.Point{right, bottom},
				orb.Point{left, bottom},
				orb.Point{left, top},
			)
		}
	}
	return l
}

// 通用：先算出全部(rows+1)*(cols+1)个角点
func buildGeneral(t AffineTransform, rows, cols int) *GeometryList {
	l := &GeometryList{Rows: rows, Cols: cols}
	if rows == 0 || cols == 0 {
		return l
	}
	w := cols + 1
	corners := make([]orb.Point, (rows+1)*w)
	for r := 0; r <= rows; r++ {
		for c := 0; c <= cols; c++ {
			x, y := t.XY(float64(r), float64(c))
			corners[r*w+c] = orb.Point{x, y}
		}
	}
	l.points = make([]orb.Point, 0, rows*cols*RingSize)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			tl := corners[r*w+c]
			l.points = append(l.points,
				tl,
				corners[r*w+c+1],
				corners[(r+1)*w+c+1],
				corners[(r+1)*w+c],
				tl,
			)
		}
	}
	return l
}

// 网格外框：经过四个极端角点的四边形
func Frame(t AffineTransform, rows, cols int) orb.Polygon {
	corner := func(r, c int) orb.Point {
		x, y := t.XY(float64(r), float64(c))
		return orb.Point{x, y}
	}
	tl := corner(0, 0)
	return orb.Polygon{orb.Ring{tl, corner(0, cols), corner(rows, cols), corner(rows, 0), tl}}
}
