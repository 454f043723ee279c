package symbology

import (
	"fmt"
	"strings"

	"github.com/wgdzlh/tilemask/errs"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// 固定调色板的颜色名，次序即分配次序
var paletteNames = []string{
	"red", "green", "blue", "yellow", "magenta", "cyan", "orange", "purple",
	"brown", "pink", "olive", "navy", "teal", "maroon", "lime", "gold",
	"coral", "darkgreen", "steelblue", "khaki", "orchid", "turquoise", "salmon", "slateblue",
	"chocolate", "darkcyan", "crimson", "indigo", "tan", "seagreen", "tomato", "royalblue",
}

var palette = buildPalette()

func buildPalette() []string {
	ret := make([]string, 0, len(paletteNames))
	for _, n := range paletteNames {
		c, _ := colorful.MakeColor(colornames.Map[n])
		ret = append(ret, c.Hex())
	}
	return ret
}

func Palette() []string {
	return append([]string(nil), palette...)
}

// 统一为小写#rrggbb
func NormalizeColor(s string) (string, error) {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("%w: color %q", errs.ErrMetadata, s)
	}
	return c.Hex(), nil
}

// 依次取调色板中未被使用的颜色，用尽后循环
type picker struct {
	used map[string]bool
	next int
}

func newPicker(used map[string]bool) *picker {
	return &picker{used: used}
}

func (p *picker) pick() string {
	for p.next < len(palette) {
		c := palette[p.next]
		p.next++
		if !p.used[c] {
			p.used[c] = true
			return c
		}
	}
	c := palette[p.next%len(palette)]
	p.next++
	return c
}
