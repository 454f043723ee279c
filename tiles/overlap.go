package tiles

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
)

// 两两比较矩形[min,max)是否相交，返回每个分块的重叠分块下标（不含自身）；仅边或角相接不算重叠
func Overlaps(xMin, yMin, width, height []int) ([][]int, error) {
	n := len(xMin)
	if len(yMin) != n || len(width) != n || len(height) != n {
		return nil, fmt.Errorf("%w: overlap inputs have lengths %d, %d, %d, %d", errs.ErrShape, n, len(yMin), len(width), len(height))
	}
	ret := make([][]int, n)
	for i := 0; i < n; i++ {
		ret[i] = []int{}
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if xMin[i] < xMin[j]+width[j] && xMin[j] < xMin[i]+width[i] &&
				yMin[i] < yMin[j]+height[j] && yMin[j] < yMin[i]+height[i] {
				ret[i] = append(ret[i], j)
				ret[j] = append(ret[j], i)
			}
		}
	}
	return ret, nil
}
