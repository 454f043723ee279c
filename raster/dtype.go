package raster

import (
	"fmt"
	"math"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
)

// 像元数据类型，封闭枚举
type DType uint8

const (
	Unknown DType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnsigned
	KindSigned
	KindFloat
)

var dtypeNames = [...]string{
	Unknown: "unknown",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (d DType) String() string {
	if int(d) < len(dtypeNames) {
		return dtypeNames[d]
	}
	return fmt.Sprintf("dtype(%d)", uint8(d))
}

func ParseDType(s string) (DType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "byte" {
		return Uint8, nil
	}
	for i, n := range dtypeNames {
		if i > 0 && n == s {
			return DType(i), nil
		}
	}
	return Unknown, fmt.Errorf("%w: unknown dtype %q", errs.ErrType, s)
}

func (d DType) Valid() bool {
	return d > Unknown && d <= Float64
}

// 单个元素的字节数
func (d DType) Size() int {
	switch d {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Int64, Uint64, Float64:
		return 8
	}
	return 0
}

func (d DType) Kind() Kind {
	switch d {
	case Uint8, Uint16, Uint32, Uint64:
		return KindUnsigned
	case Int8, Int16, Int32, Int64:
		return KindSigned
	case Float32, Float64:
		return KindFloat
	}
	return KindInvalid
}

func (d DType) IsInteger() bool {
	k := d.Kind()
	return k == KindUnsigned || k == KindSigned
}

// 能否表示负数，浮点也算
func (d DType) IsSigned() bool {
	k := d.Kind()
	return k == KindSigned || k == KindFloat
}

func (d DType) IsFloat() bool {
	return d.Kind() == KindFloat
}

// 可表示的取值范围
func (d DType) Range() (lo, hi float64) {
	switch d {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	case Int64:
		return math.MinInt64, math.MaxInt64
	case Uint64:
		return 0, math.MaxUint64
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	}
	return math.Inf(-1), math.Inf(1)
}

// 将数值转换为该类型可存储的值：整数截断并钳位，float32降精度
func (d DType) Coerce(v float64) float64 {
	if d.IsFloat() {
		if d == Float32 {
			return float64(float32(v))
		}
		return v
	}
	if !d.IsInteger() {
		return v
	}
	if math.IsNaN(v) {
		return 0
	}
	v = math.Trunc(v)
	lo, hi := d.Range()
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// 两种类型共同的提升类型
func Promote(a, b DType) DType {
	if a == b || !b.Valid() {
		return a
	}
	if !a.Valid() {
		return b
	}
	ka, kb := a.Kind(), b.Kind()
	switch {
	case ka == KindFloat || kb == KindFloat:
		if a == Float64 || b == Float64 {
			return Float64
		}
		// float32只能无损容纳16位以内的整数
		if (ka != KindFloat && a.Size() > 2) || (kb != KindFloat && b.Size() > 2) {
			return Float64
		}
		return Float32
	case ka == kb:
		if a.Size() >= b.Size() {
			return a
		}
		return b
	}
	// 有符号与无符号混合
	s, u := a, b
	if ka == KindUnsigned {
		s, u = b, a
	}
	if s.Size() > u.Size() {
		return s
	}
	switch u.Size() {
	case 1:
		return Int16
	case 2:
		return Int32
	case 4:
		return Int64
	}
	return Float64
}
