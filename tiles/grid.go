// Package tiles 生成分块位置、检测分块重叠，并读写分块清单
package tiles

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/wgdzlh/tilemask/errs"
)

// 分块尺寸（行数、列数）
type Size struct {
	Rows int
	Cols int
}

func Square(n int) Size {
	return Size{Rows: n, Cols: n}
}

// 相邻分块起点的间距：小于1的比例（按分块尺寸取整）或固定像元数
type Spacing struct {
	fraction float64
	rows     int
	cols     int
}

func Fraction(f float64) Spacing {
	return Spacing{fraction: f}
}

func Step(n int) Spacing {
	return Spacing{rows: n, cols: n}
}

func Steps(rows, cols int) Spacing {
	return Spacing{rows: rows, cols: cols}
}

const DefaultFraction = 0.9

func (s Spacing) IsZero() bool {
	return s == Spacing{}
}

func (s Spacing) steps(size Size) (rows, cols int, err error) {
	if s.IsZero() {
		s = Fraction(DefaultFraction)
	}
	if s.fraction != 0 {
		if s.fraction <= 0 || s.fraction >= 1 {
			err = fmt.Errorf("%w: spacing fraction %v is not in (0, 1)", errs.ErrShape, s.fraction)
			return
		}
		rows, cols = int(s.fraction*float64(size.Rows)), int(s.fraction*float64(size.Cols))
	} else {
		rows, cols = s.rows, s.cols
	}
	if rows <= 0 || cols <= 0 {
		err = fmt.Errorf("%w: spacing (%d, %d) must be positive", errs.ErrShape, rows, cols)
	}
	return
}

type GridOptions struct {
	Anchor  *[2]int // 某个分块的左上角(row,col)，为空时随机
	Spacing Spacing
	Rand    *rand.Rand
}

// 在[lim0,lim1)行、列范围内生成分块左上角位置，返回平行的行、列数组（行变化较慢）。
// 两个方向都包含lim0与lim1-size两个边界位置
func Positions(rowLim, colLim [2]int, size Size, opts GridOptions) (rows, cols []int, err error) {
	if size.Rows <= 0 || size.Cols <= 0 {
		err = fmt.Errorf("%w: tile size (%d, %d) must be positive", errs.ErrShape, size.Rows, size.Cols)
		return
	}
	stepR, stepC, err := opts.Spacing.steps(size)
	if err != nil {
		return
	}
	for _, lim := range [][3]int{{rowLim[0], rowLim[1], size.Rows}, {colLim[0], colLim[1], size.Cols}} {
		if lim[1]-lim[2] <= lim[0] {
			err = fmt.Errorf("%w: limits [%d, %d) cannot hold more than one placement of size %d", errs.ErrShape, lim[0], lim[1], lim[2])
			return
		}
	}
	var anchor [2]int
	if opts.Anchor != nil {
		anchor = *opts.Anchor
		if anchor[0] < rowLim[0] || anchor[0] > rowLim[1]-size.Rows || anchor[1] < colLim[0] || anchor[1] > colLim[1]-size.Cols {
			err = fmt.Errorf("%w: anchor %v out of placement range", errs.ErrShape, anchor)
			return
		}
	} else {
		intn := rand.Intn
		if opts.Rand != nil {
			intn = opts.Rand.Intn
		}
		anchor[0] = rowLim[0] + intn(rowLim[1]-size.Rows-rowLim[0])
		anchor[1] = colLim[0] + intn(colLim[1]-size.Cols-colLim[0])
	}
	ys := axisStarts(rowLim, size.Rows, stepR, anchor[0])
	xs := axisStarts(colLim, size.Cols, stepC, anchor[1])
	rows = make([]int, 0, len(ys)*len(xs))
	cols = make([]int, 0, len(ys)*len(xs))
	for _, y := range ys {
		for _, x := range xs {
			rows = append(rows, y)
			cols = append(cols, x)
		}
	}
	return
}

// 单个方向：从anchor向前(< lim1-size)、向后(> lim0)按步长取，再并入两个边界
func axisStarts(lim [2]int, size, step, anchor int) []int {
	end := lim[1] - size
	set := map[int]struct{}{lim[0]: {}, end: {}}
	for p := anchor; p < end; p += step {
		set[p] = struct{}{}
	}
	for p := anchor; p > lim[0]; p -= step {
		set[p] = struct{}{}
	}
	ret := make([]int, 0, len(set))
	for p := range set {
		ret = append(ret, p)
	}
	sort.Ints(ret)
	return ret
}
