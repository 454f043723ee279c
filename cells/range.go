package cells

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
)

// 行/列区间，语义同切片：[Start,Stop)按Step取，负数下标从末尾计
type Range struct {
	Start int
	Stop  int
	Step  int
	ToEnd bool // 忽略Stop，取到末尾
}

func All() Range {
	return Range{Step: 1, ToEnd: true}
}

func Span(start, stop int) Range {
	return Range{Start: start, Stop: stop, Step: 1}
}

func Stepped(start, stop, step int) Range {
	return Range{Start: start, Stop: stop, Step: step}
}

// 单个下标
func At(i int) Range {
	if i == -1 {
		return Range{Start: -1, Step: 1, ToEnd: true}
	}
	return Range{Start: i, Stop: i + 1, Step: 1}
}

func (r Range) step() int {
	if r.Step == 0 {
		return 1
	}
	return r.Step
}

func (r Range) indices(n int) ([]int, error) {
	step := r.step()
	if step < 0 {
		return nil, fmt.Errorf("%w: negative step %d", errs.ErrShape, step)
	}
	start, stop := r.Start, r.Stop
	if r.ToEnd {
		stop = n
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(0, min(start, n))
	stop = max(0, min(stop, n))
	var ret []int
	for i := start; i < stop; i += step {
		ret = append(ret, i)
	}
	return ret, nil
}

// 波段选择：全部、按名称或按下标
type BandSelector struct {
	all   bool
	names []string
	idx   []int
}

func AllBands() BandSelector {
	return BandSelector{all: true}
}

func Bands(names ...string) BandSelector {
	return BandSelector{names: names}
}

func BandIndices(idx ...int) BandSelector {
	return BandSelector{idx: idx}
}
