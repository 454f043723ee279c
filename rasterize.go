package tilemask

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/raster"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// 按优先级排序的SQL：列表中越靠前的值排序越靠后，最后写入
func prioritySQL(layer, field string, values []string) string {
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(quoteIdent(layer))
	sb.WriteString(" ORDER BY CASE CAST(")
	sb.WriteString(quoteIdent(field))
	sb.WriteString(" AS TEXT)")
	n := len(values)
	for i, v := range values {
		sb.WriteString(" WHEN ")
		sb.WriteString(quoteLiteral(v))
		sb.WriteString(" THEN ")
		sb.WriteString(strconv.Itoa(n - i))
	}
	sb.WriteString(" ELSE 0 END")
	return sb.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// 将矢量图层的属性值烧录为与目标网格对齐的栅格
func (g *GdalToolbox) Rasterize(opts RasterizeOptions) (arr *raster.Array, err error) {
	t := opts.Transform
	if t[2] != 0 || t[4] != 0 || t[1] == 0 || t[5] == 0 {
		err = fmt.Errorf("%w: rasterize needs a north-up transform, got %v", errs.ErrShape, t)
		return
	}
	if opts.Rows <= 0 || opts.Cols <= 0 {
		err = fmt.Errorf("%w: rasterize size %dx%d", errs.ErrShape, opts.Rows, opts.Cols)
		return
	}
	dt := opts.DType
	if dt == raster.Unknown {
		dt = raster.Float32
	}
	if !dt.Valid() {
		err = fmt.Errorf("%w: rasterize dtype %s", errs.ErrType, dt)
		return
	}
	vds, err := godal.Open(opts.VectorPath, godal.VectorOnly())
	if err != nil {
		log.Error(g.logTag+"open vector failed", zap.String("path", opts.VectorPath), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrGdalDriverOpen, err)
		return
	}
	defer vds.Close()
	layer := opts.Layer
	if layer == "" {
		layers := vds.Layers()
		if len(layers) == 0 {
			err = fmt.Errorf("%w: %s has no layer", ErrRasterizeFailed, opts.VectorPath)
			return
		}
		layer = layers[0].Name()
	}
	ext := gridExtent(t, opts.Rows, opts.Cols)
	nodata := formatFloat(opts.NoData)
	switches := []string{
		"-of", "GTiff",
		"-ot", "Float32",
		"-te", formatFloat(ext[0]), formatFloat(ext[1]), formatFloat(ext[2]), formatFloat(ext[3]),
		"-ts", strconv.Itoa(opts.Cols), strconv.Itoa(opts.Rows),
		"-init", nodata,
		"-a_nodata", nodata,
		"-a", opts.Attribute,
	}
	if opts.CRS != "" {
		switches = append(switches, "-a_srs", opts.CRS)
	}
	if opts.PriorityField != "" && len(opts.PriorityValues) > 0 {
		switches = append(switches, "-dialect", "SQLite", "-sql", prioritySQL(layer, opts.PriorityField, opts.PriorityValues))
	} else {
		switches = append(switches, "-l", layer)
	}
	tmp := utils.GetTmpPath(g.tmpDir, TMP_RASTERIZE)
	log.Info(g.logTag+"rasterize layer", zap.String("layer", layer), zap.String("attr", opts.Attribute), zap.String("tmp", tmp))
	rds, err := vds.Rasterize(tmp, switches)
	if err != nil {
		log.Error(g.logTag+"rasterize failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrRasterizeFailed, err)
		return
	}
	defer os.Remove(tmp)
	defer rds.Close()
	bands := rds.Bands()
	if len(bands) == 0 {
		err = ErrEmptyTif
		return
	}
	buf := make([]float64, opts.Rows*opts.Cols)
	if err = bands[0].IO(godal.IORead, 0, 0, buf, opts.Cols, opts.Rows); err != nil {
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
		return
	}
	arr, err = raster.FromValues(opts.Rows, opts.Cols, dt, buf)
	return
}
