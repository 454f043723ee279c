package tilemask

import "github.com/wgdzlh/tilemask/raster"

// 多边形WKB
type GdalGeo = []byte

type FieldKind int

const (
	FieldInteger FieldKind = iota
	FieldInteger64
	FieldReal
)

// 属性字段
type Field struct {
	Name string
	Kind FieldKind
}

// 待写出的要素：几何WKB + 与字段一一对应的属性值
type Feature struct {
	Geom   GdalGeo
	Values []float64
}

// 按像元类型推断字段类型：32位以内有符号、16位以内无符号整数为Integer，更宽的整数为Integer64，浮点为Real
func FieldKindOf(dt raster.DType) FieldKind {
	if !dt.IsInteger() {
		return FieldReal
	}
	limit := 2
	if dt.IsSigned() {
		limit = 4
	}
	if dt.Size() <= limit {
		return FieldInteger
	}
	return FieldInteger64
}

// 栅格基本信息
type RasterInfo struct {
	Rows      int
	Cols      int
	Bands     int
	DType     raster.DType
	Transform [6]float64
	CRS       string
}

// 矢量转栅格参数
type RasterizeOptions struct {
	VectorPath string
	Layer      string // 为空时取第一个图层
	Attribute  string // 写入像元的属性字段
	Rows       int
	Cols       int
	Transform  [6]float64
	CRS        string
	NoData     float64
	// 优先级：字段值按列表次序，越靠前越后写入（覆盖其它要素）；不在列表中的最先写入
	PriorityField  string
	PriorityValues []string
	DType          raster.DType
}
