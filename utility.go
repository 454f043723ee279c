package tilemask

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/raster"

	"github.com/airbusgeo/godal"
)

// GeoTIFF可用类型，按宽度升序
var (
	tiffUnsigned = []godal.DataType{godal.Byte, godal.UInt16, godal.UInt32}
	tiffSigned   = []godal.DataType{godal.Int8, godal.Int16, godal.Int32}
	tiffFloat    = []godal.DataType{godal.Float32, godal.Float64}
)

// 选出不小于元素宽度的最窄类型；没有足够宽的整数类型时用Float64，内存中的取值本就是float64，不会丢失
func tiffDataType(dt raster.DType) (ret godal.DataType, err error) {
	var cands []godal.DataType
	switch {
	case dt.IsFloat():
		cands = tiffFloat
	case dt.Kind() == raster.KindUnsigned:
		cands = tiffUnsigned
	case dt.Kind() == raster.KindSigned:
		cands = tiffSigned
	default:
		err = fmt.Errorf("%w: dtype %s cannot be written to tif", errs.ErrType, dt)
		return
	}
	for _, c := range cands {
		if c.Size() >= dt.Size() {
			return c, nil
		}
	}
	return godal.Float64, nil
}

// tif类型读回的dtype与原dtype不同时（64位整数），在元数据中记下原dtype
func dtypeMetadata(dt raster.DType, tdt godal.DataType) (string, bool) {
	back, err := dtypeOfTiff(tdt)
	if err == nil && back == dt {
		return "", false
	}
	return dt.String(), true
}

// 按元数据还原dtype，须与tif类型相符
func restoreDType(md map[string]string, tdt godal.DataType, dt raster.DType) raster.DType {
	s, ok := md[DTYPE_METADATA_KEY]
	if !ok {
		return dt
	}
	orig, err := raster.ParseDType(s)
	if err != nil {
		return dt
	}
	if want, err := tiffDataType(orig); err != nil || want != tdt {
		return dt
	}
	return orig
}

func dtypeOfTiff(dt godal.DataType) (ret raster.DType, err error) {
	switch dt {
	case godal.Int8:
		ret = raster.Int8
	case godal.Byte:
		ret = raster.Uint8
	case godal.UInt16:
		ret = raster.Uint16
	case godal.Int16:
		ret = raster.Int16
	case godal.UInt32:
		ret = raster.Uint32
	case godal.Int32:
		ret = raster.Int32
	case godal.Float32:
		ret = raster.Float32
	case godal.Float64:
		ret = raster.Float64
	default:
		err = fmt.Errorf("%w: unsupported tif data type %s", errs.ErrType, dt.String())
	}
	return
}

// 栅格地理范围(minX,minY,maxX,maxY)，仅适用于无旋转变换
func gridExtent(t [6]float64, rows, cols int) (ext [4]float64) {
	x0, x1 := t[0], t[0]+float64(cols)*t[1]
	y0, y1 := t[3], t[3]+float64(rows)*t[5]
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return [4]float64{x0, y0, x1, y1}
}
