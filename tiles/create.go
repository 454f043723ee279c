package tiles

import (
	"fmt"
	"math/rand"

	"github.com/wgdzlh/tilemask"
	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/geo"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/raster"
	"github.com/wgdzlh/tilemask/symbology"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"go.uber.org/zap"
)

const logTag = "Tiles:"

// 分块完成状态的取值
type Priorities struct {
	Completed   int
	Uncompleted int
}

func DefaultPriorities() Priorities {
	return Priorities{Completed: 0, Uncompleted: 1}
}

type RasterStore interface {
	RasterInfo(path string) (*tilemask.RasterInfo, error)
	WriteMosaic(path string, m *raster.Mosaic) error
}

type ProjectOptions struct {
	Raster        string      // 待标注的影像
	Bounds        *[4]int     // 像元范围(rowMin, colMin, rowMax, colMax)，为空时为整幅影像
	BoundsPolygon orb.Polygon // 地图坐标下的范围面，只保留中心在面内的分块
	TileSize      Size
	Spacing       Spacing
	Anchor        *[2]int
	BandNames     []string // 掩膜波段名，为空时为单个波段"1"
	MaskPath      string   // 为空时不生成掩膜，清单指向原影像
	ManifestPath  string
	Priorities    *Priorities
	Rand          *rand.Rand
}

// 生成分块清单与空白掩膜
func CreateProject(tb RasterStore, opts ProjectOptions) (*Manifest, error) {
	if err := utils.CheckOutputPath(opts.ManifestPath, utils.FILE_EXT_CSV); err != nil {
		return nil, err
	}
	if opts.MaskPath != "" {
		if err := utils.CheckOutputPath(opts.MaskPath, utils.FILE_EXT_TIF, utils.FILE_EXT_TIFF); err != nil {
			return nil, err
		}
	}
	names := opts.BandNames
	if len(names) == 0 {
		names = []string{"1"}
	}
	if utils.HasEmptyOrDup(names) {
		return nil, fmt.Errorf("%w: band names %q must be non-empty and unique", errs.ErrShape, names)
	}
	pr := DefaultPriorities()
	if opts.Priorities != nil {
		pr = *opts.Priorities
	}
	info, err := tb.RasterInfo(opts.Raster)
	if err != nil {
		return nil, err
	}
	bounds := [4]int{0, 0, info.Rows, info.Cols}
	if opts.Bounds != nil {
		bounds = *opts.Bounds
		if bounds[0] < 0 || bounds[1] < 0 || bounds[2] > info.Rows || bounds[3] > info.Cols {
			return nil, fmt.Errorf("%w: bounds %v exceed raster %dx%d", errs.ErrShape, bounds, info.Rows, info.Cols)
		}
	}
	rows, cols, err := Positions([2]int{bounds[0], bounds[2]}, [2]int{bounds[1], bounds[3]}, opts.TileSize,
		GridOptions{Anchor: opts.Anchor, Spacing: opts.Spacing, Rand: opts.Rand})
	if err != nil {
		return nil, err
	}
	var pixelBounds orb.Polygon
	if len(opts.BoundsPolygon) > 0 {
		if pixelBounds, err = toPixelSpace(geo.AffineTransform(info.Transform), opts.BoundsPolygon); err != nil {
			return nil, err
		}
	}
	filename := opts.MaskPath
	if filename == "" {
		filename = opts.Raster
	}
	m := &Manifest{HasGeometry: true}
	for i := range rows {
		if pixelBounds != nil {
			center := orb.Point{float64(cols[i]) + float64(opts.TileSize.Cols)/2, float64(rows[i]) + float64(opts.TileSize.Rows)/2}
			if !planar.PolygonContains(pixelBounds, center) {
				continue
			}
		}
		m.Tiles = append(m.Tiles, Tile{
			X:        cols[i],
			Y:        rows[i],
			Width:    opts.TileSize.Cols,
			Height:   opts.TileSize.Rows,
			Filename: filename,
			Priority: pr.Uncompleted,
			Extra:    map[string]string{},
			Source:   SourceNone,
		})
	}
	log.Info(logTag+"tile positions generated", zap.Int("total", len(rows)), zap.Int("kept", len(m.Tiles)))
	if err = m.WriteFile(opts.ManifestPath); err != nil {
		return nil, err
	}
	if opts.MaskPath != "" {
		mask, err := blankMask(info, names)
		if err != nil {
			return nil, err
		}
		if err = tb.WriteMosaic(opts.MaskPath, mask); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// 地图坐标面转为像元坐标(col,row)面
func toPixelSpace(t geo.AffineTransform, p orb.Polygon) (orb.Polygon, error) {
	ret := make(orb.Polygon, len(p))
	for i, ring := range p {
		r := make(orb.Ring, len(ring))
		for k, pt := range ring {
			row, col, err := t.RowCol(pt[0], pt[1])
			if err != nil {
				return nil, err
			}
			r[k] = orb.Point{col, row}
		}
		ret[i] = r
	}
	return ret, nil
}

func blankMask(info *tilemask.RasterInfo, names []string) (*raster.Mosaic, error) {
	m := &raster.Mosaic{
		Names:     make([]string, len(names)),
		Bands:     make([]*raster.Array, len(names)),
		Transform: info.Transform,
		CRS:       info.CRS,
		Metadata:  map[string]string{},
	}
	sym := symbology.Symbology{}
	for i, n := range names {
		n = utils.NormalizeName(n)
		m.Names[i] = n
		m.Bands[i] = raster.NewArray(info.Rows, info.Cols, raster.Uint8)
		sym[n] = symbology.Blank()
	}
	if err := sym.ToMetadata(m.Metadata); err != nil {
		return nil, err
	}
	return m, nil
}
