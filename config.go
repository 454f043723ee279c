package tilemask

const (
	FILE_EXT_SHP     = ".shp"
	FILE_EXT_GPKG    = ".gpkg"
	FILE_EXT_GEOJSON = ".geojson"
	FILE_EXT_JSON    = ".json"

	SHP_DRIVER_NAME     = "ESRI Shapefile"
	GPKG_DRIVER_NAME    = "GPKG"
	GEOJSON_DRIVER_NAME = "GeoJSON"

	SHAPE_ENCODING  = "UTF-8"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	LZW_OPTION      = "COMPRESS=LZW"

	DefaultLayerName = "cells"

	FIELD_ROW = "row"
	FIELD_COL = "col"

	TMP_RASTERIZE = "rasterize_%s.tif"

	// tif中无法直接表示的原dtype
	DTYPE_METADATA_KEY = "tilemask_dtype"
)

// 矢量输出扩展名 -> OGR驱动
var vectorDrivers = map[string]string{
	FILE_EXT_GPKG:    GPKG_DRIVER_NAME,
	FILE_EXT_SHP:     SHP_DRIVER_NAME,
	FILE_EXT_GEOJSON: GEOJSON_DRIVER_NAME,
	FILE_EXT_JSON:    GEOJSON_DRIVER_NAME,
}

// shapefile附带的文件
var shpSidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".qix", ".sbn", ".sbx"}
