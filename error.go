package tilemask

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrGdalWrongGeoType = errors.New("gdal wrong geo type")
	ErrInvalidCRS       = errors.New("invalid CRS WKT")
	ErrEmptyTif         = errors.New("empty tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrTifWriteFailed   = errors.New("tif write failed")
	ErrRasterizeFailed  = errors.New("rasterize failed")
	ErrFieldMismatch    = errors.New("feature values do not match fields")
)
