package tilemask

import (
	"fmt"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/raster"
	"github.com/wgdzlh/tilemask/utils"

	"github.com/airbusgeo/godal"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 将镶嵌影像写为LZW压缩的GeoTIFF：波段描述为波段名，元数据逐项写入
func (g *GdalToolbox) WriteMosaic(tif string, m *raster.Mosaic) (err error) {
	if err = utils.CheckOutputPath(tif, utils.FILE_EXT_TIF, utils.FILE_EXT_TIFF); err != nil {
		return
	}
	if err = m.Validate(); err != nil {
		return
	}
	dt, err := tiffDataType(m.DType())
	if err != nil {
		return
	}
	rows, cols := m.Rows(), m.Cols()
	log.Info(g.logTag+"write mosaic tif", zap.String("tif", tif), zap.Int("bands", len(m.Bands)),
		zap.Int("width", cols), zap.Int("height", rows), zap.String("dt", dt.String()))
	ds, err := godal.Create(godal.GTiff, tif, len(m.Bands), dt, cols, rows, godal.CreationOption(LZW_OPTION))
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrTifWriteFailed, err)
		return
	}
	defer func() {
		err = multierr.Append(err, ds.Close())
	}()
	if err = ds.SetGeoTransform(m.Transform); err != nil {
		return
	}
	if m.CRS != "" {
		if err = ds.SetProjection(m.CRS); err != nil {
			log.Error(g.logTag+"set tif projection failed", zap.Error(err))
			return
		}
	}
	for i, band := range ds.Bands() {
		if err = band.IO(godal.IOWrite, 0, 0, m.Bands[i].Data, cols, rows); err != nil {
			log.Error(g.logTag+"write tif band failed", zap.Int("band", i), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrTifWriteFailed, err)
			return
		}
		if err = band.SetDescription(m.Names[i]); err != nil {
			return
		}
	}
	md := make(map[string]string, len(m.Metadata)+1)
	for k, v := range m.Metadata {
		if k != DTYPE_METADATA_KEY {
			md[k] = v
		}
	}
	if s, ok := dtypeMetadata(m.DType(), dt); ok {
		md[DTYPE_METADATA_KEY] = s
	}
	for k, v := range md {
		if err = ds.SetMetadata(k, v); err != nil {
			log.Error(g.logTag+"set tif metadata failed", zap.String("key", k), zap.Error(err))
			return
		}
	}
	return
}

// 读取整个GeoTIFF为镶嵌影像
func (g *GdalToolbox) ReadMosaic(tif string) (m *raster.Mosaic, err error) {
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
		return
	}
	defer sds.Close()
	info, err := datasetInfo(sds)
	if err != nil {
		return
	}
	if info.Bands == 0 {
		err = ErrEmptyTif
		return
	}
	log.Info(g.logTag+"start read tif", zap.String("tif", tif), zap.Int("bands", info.Bands),
		zap.Int("width", info.Cols), zap.Int("height", info.Rows), zap.String("dt", info.DType.String()))
	m = &raster.Mosaic{
		Names:     make([]string, info.Bands),
		Bands:     make([]*raster.Array, info.Bands),
		Transform: info.Transform,
		CRS:       info.CRS,
		Metadata:  map[string]string{},
	}
	for k, v := range sds.Metadatas() {
		if k != DTYPE_METADATA_KEY {
			m.Metadata[k] = v
		}
	}
	for i, band := range sds.Bands() {
		arr := raster.NewArray(info.Rows, info.Cols, info.DType)
		if err = band.IO(godal.IORead, 0, 0, arr.Data, info.Cols, info.Rows); err != nil {
			log.Error(g.logTag+"read tif band failed", zap.Int("band", i), zap.Error(err))
			err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
			return
		}
		m.Bands[i] = arr
		m.Names[i] = band.Description()
	}
	return
}

// 栅格尺寸、类型与地理参考
func (g *GdalToolbox) RasterInfo(tif string) (info *RasterInfo, err error) {
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %v", ErrTifReadFailed, err)
		return
	}
	defer sds.Close()
	return datasetInfo(sds)
}

func datasetInfo(sds *godal.Dataset) (info *RasterInfo, err error) {
	st := sds.Structure()
	info = &RasterInfo{
		Rows:  st.SizeY,
		Cols:  st.SizeX,
		Bands: st.NBands,
		CRS:   sds.Projection(),
	}
	if st.NBands > 0 {
		if info.DType, err = dtypeOfTiff(st.DataType); err != nil {
			return
		}
		info.DType = restoreDType(sds.Metadatas(), st.DataType, info.DType)
	}
	if info.Transform, err = sds.GeoTransform(); err != nil {
		// 无地理参考时按像元坐标处理
		info.Transform = [6]float64{0, 1, 0, 0, 0, 1}
		err = nil
	}
	if info.Rows <= 0 || info.Cols <= 0 {
		err = fmt.Errorf("%w: raster size %dx%d", errs.ErrShape, info.Rows, info.Cols)
	}
	return
}
