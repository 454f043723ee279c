package cells

import (
	"fmt"
	"math"
	"sort"

	"github.com/wgdzlh/tilemask"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/paulmach/orb/encoding/wkb"
	"go.uber.org/zap"
)

const logTag = "Cells:"

// 矢量输出所需的几何运算与写出
type VectorWriter interface {
	UnionParts(gs []tilemask.GdalGeo) ([]tilemask.GdalGeo, error)
	Simplify(geom tilemask.GdalGeo, tolerance float64) ([]tilemask.GdalGeo, error)
	WriteFeatures(path, layerName, crs string, fields []tilemask.Field, features []tilemask.Feature) (int, error)
}

// 空值过滤：列表形式对所有波段生效，任一波段非空即保留；
// 分波段形式只检查列出的波段，须所有列出的波段都非空才保留
type Nulls struct {
	values  []float64
	perBand map[string][]float64
}

func NullsAll(values ...float64) Nulls {
	return Nulls{values: values}
}

func NullsPerBand(m map[string][]float64) Nulls {
	return Nulls{perBand: m}
}

func (n Nulls) IsPerBand() bool {
	return n.perBand != nil
}

type ExportOptions struct {
	LayerName            string
	DissolveBy           string  // 按该波段值合并相邻同值像元
	KeepOnlyDissolveBand bool    // 合并时只保留合并波段的属性
	SimplifyTolerance    float64 // >0时简化输出多边形
	Nulls                Nulls
}

func contains(vs []float64, v float64) bool {
	for _, a := range vs {
		if a == v || (math.IsNaN(a) && math.IsNaN(v)) {
			return true
		}
	}
	return false
}

// 每个像元是否保留
func (c *Collection) keepMask(opts ExportOptions) []bool {
	n := c.rows * c.cols
	keep := make([]bool, n)
	if !opts.Nulls.IsPerBand() {
		for _, name := range c.names {
			data := c.bands[name].Data
			for i := range keep {
				if !keep[i] && !contains(opts.Nulls.values, data[i]) {
					keep[i] = true
				}
			}
		}
		return keep
	}
	perBand := opts.Nulls.perBand
	if opts.DissolveBy != "" && opts.KeepOnlyDissolveBand {
		perBand = map[string][]float64{}
		if v, ok := opts.Nulls.perBand[opts.DissolveBy]; ok {
			perBand[opts.DissolveBy] = v
		}
	}
	for i := range keep {
		keep[i] = true
	}
	for _, name := range c.names {
		nulls, ok := perBand[name]
		if !ok {
			continue
		}
		data := c.bands[name].Data
		for i := range keep {
			if keep[i] && contains(nulls, data[i]) {
				keep[i] = false
			}
		}
	}
	return keep
}

func (c *Collection) cellWKB(i int) (tilemask.GdalGeo, error) {
	return wkb.Marshal(c.geoms.Polygon(i))
}

// 导出为面矢量，返回要素数；没有像元通过过滤时仍写出空图层并返回0
func (c *Collection) ExportVector(tb VectorWriter, path string, opts ExportOptions) (int, error) {
	return c.exportVector(tb, path, "", opts)
}

func (c *Collection) exportVector(tb VectorWriter, path, crs string, opts ExportOptions) (cnt int, err error) {
	if _, err = tilemask.VectorDriverName(path); err != nil {
		return
	}
	if err = utils.CheckOutputPath(path); err != nil {
		return
	}
	dissolve := opts.DissolveBy != ""
	if dissolve {
		if _, ok := c.bands[opts.DissolveBy]; !ok {
			err = fmt.Errorf("%w: dissolve band %q", ErrBandNotFound, opts.DissolveBy)
			return
		}
	}
	outBands := c.names
	if dissolve && opts.KeepOnlyDissolveBand {
		outBands = []string{opts.DissolveBy}
	}
	fields := make([]tilemask.Field, 0, len(outBands)+2)
	for _, n := range outBands {
		fields = append(fields, tilemask.Field{Name: n, Kind: tilemask.FieldKindOf(c.bands[n].DType)})
	}
	if !dissolve {
		fields = append(fields,
			tilemask.Field{Name: tilemask.FIELD_ROW, Kind: tilemask.FieldInteger},
			tilemask.Field{Name: tilemask.FIELD_COL, Kind: tilemask.FieldInteger},
		)
	}
	keep := c.keepMask(opts)
	var feats []tilemask.Feature
	if dissolve {
		feats, err = c.dissolveFeatures(tb, keep, opts.DissolveBy, outBands)
	} else {
		feats, err = c.cellFeatures(keep, outBands)
	}
	if err != nil {
		return
	}
	if opts.SimplifyTolerance > 0 {
		if feats, err = simplifyFeatures(tb, feats, opts.SimplifyTolerance); err != nil {
			return
		}
	}
	log.Info(logTag+"export vector", zap.String("path", path), zap.Bool("dissolve", dissolve), zap.Int("features", len(feats)))
	return tb.WriteFeatures(path, opts.LayerName, crs, fields, feats)
}

func (c *Collection) values(i int, bands []string) []float64 {
	vs := make([]float64, len(bands), len(bands)+2)
	for k, n := range bands {
		vs[k] = c.bands[n].Data[i]
	}
	return vs
}

func (c *Collection) cellFeatures(keep []bool, bands []string) (feats []tilemask.Feature, err error) {
	for i, ok := range keep {
		if !ok {
			continue
		}
		f := tilemask.Feature{Values: c.values(i, bands)}
		if f.Geom, err = c.cellWKB(i); err != nil {
			return
		}
		f.Values = append(f.Values, float64(i/c.cols), float64(i%c.cols))
		feats = append(feats, f)
	}
	return
}

// 按合并波段取值升序分组，每组合并后的每个连通面为一个要素，属性取组内第一个像元
func (c *Collection) dissolveFeatures(tb VectorWriter, keep []bool, by string, bands []string) (feats []tilemask.Feature, err error) {
	data := c.bands[by].Data
	groups := map[uint64][]int{}
	var keys []float64
	for i, ok := range keep {
		if !ok {
			continue
		}
		k := math.Float64bits(data[i])
		if _, seen := groups[k]; !seen {
			keys = append(keys, data[i])
		}
		groups[k] = append(groups[k], i)
	}
	sort.Slice(keys, func(a, b int) bool {
		x, y := keys[a], keys[b]
		if math.IsNaN(y) {
			return !math.IsNaN(x)
		}
		return x < y
	})
	for _, v := range keys {
		idx := groups[math.Float64bits(v)]
		gs := make([]tilemask.GdalGeo, len(idx))
		for k, i := range idx {
			if gs[k], err = c.cellWKB(i); err != nil {
				return
			}
		}
		var parts []tilemask.GdalGeo
		if parts, err = tb.UnionParts(gs); err != nil {
			return
		}
		rep := c.values(idx[0], bands)
		for _, p := range parts {
			feats = append(feats, tilemask.Feature{Geom: p, Values: rep})
		}
	}
	return
}

func simplifyFeatures(tb VectorWriter, feats []tilemask.Feature, tolerance float64) ([]tilemask.Feature, error) {
	ret := make([]tilemask.Feature, 0, len(feats))
	for _, f := range feats {
		parts, err := tb.Simplify(f.Geom, tolerance)
		if err != nil {
			return nil, err
		}
		for _, p := range parts {
			ret = append(ret, tilemask.Feature{Geom: p, Values: f.Values})
		}
	}
	return ret, nil
}
