package symbology

import (
	"math"
	"sort"
)

// 合并同一波段的两份符号化。values为合并后影像中出现的取值。
// 取值与标签以b1为准，仅b2有的取值被引入；两边都没有空值时补一个（0未被声明则为0，否则为最大值+1）；
// 空值一律标为NULL、默认颜色；其它已有颜色保留，其余从调色板中取未使用的颜色
func MergeBand(values []float64, b1, b2 Band) Band {
	set := make(map[float64]struct{}, len(values)+len(b1)+len(b2))
	for _, v := range values {
		if !math.IsNaN(v) {
			set[v] = struct{}{}
		}
	}
	_, zeroDeclared := b1[0]
	if _, ok := b2[0]; ok {
		zeroDeclared = true
	}
	for v := range b1 {
		set[v] = struct{}{}
	}
	for v := range b2 {
		set[v] = struct{}{}
	}
	all := make([]float64, 0, len(set))
	for v := range set {
		all = append(all, v)
	}
	sort.Float64s(all)

	var (
		ret     = make(Band, len(all)+1)
		used    = map[string]bool{}
		hasNull bool
		pending []float64
	)
	for _, v := range all {
		c, ok := b1[v]
		if !ok {
			c, ok = b2[v]
		}
		if !ok {
			c = Class{}
		}
		if c.IsNull {
			c = Class{Label: NullLabel, Color: DefaultColor, IsNull: true}
			hasNull = true
		}
		if c.Color != "" {
			used[c.Color] = true
		} else {
			pending = append(pending, v)
		}
		ret[v] = c
	}
	if !hasNull {
		null := 0.0
		if zeroDeclared {
			null = all[len(all)-1] + 1
		}
		ret[null] = Class{Label: NullLabel, Color: DefaultColor, IsNull: true}
		used[DefaultColor] = true
		for i, v := range pending {
			if v == null {
				pending = append(pending[:i], pending[i+1:]...)
				break
			}
		}
	}
	p := newPicker(used)
	for _, v := range pending {
		c := ret[v]
		c.Color = p.pick()
		ret[v] = c
	}
	return ret
}

// 影像创建时的默认符号化：0为空值，1为未命名类别
func Blank() Band {
	return Band{
		0: {Label: NullLabel, Color: DefaultColor, IsNull: true},
		1: {Label: "", Color: DefaultColor},
	}
}
