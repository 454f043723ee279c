// Package symbology 保存每个波段的取值 -> 类别（标签、颜色、是否为空值）映射，
// 以JSON形式存放在镶嵌影像的元数据中
package symbology

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wgdzlh/tilemask/errs"
	"github.com/wgdzlh/tilemask/log"
	"github.com/wgdzlh/tilemask/utils"

	"go.uber.org/zap"
)

const (
	MetadataKey  = "tilemask_symbology"
	NullLabel    = "NULL"
	DefaultColor = "#ffffff"

	logTag = "Symbology:"
)

// 单个取值的类别，JSON编码为[label, color, isNull]
type Class struct {
	Label  string
	Color  string
	IsNull bool
}

func (c Class) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]any{c.Label, c.Color, c.IsNull})
}

func (c *Class) UnmarshalJSON(b []byte) (err error) {
	var raw []json.RawMessage
	if err = json.Unmarshal(b, &raw); err != nil {
		return
	}
	if len(raw) != 3 {
		return fmt.Errorf("class needs [label, color, isNull], got %d items", len(raw))
	}
	var ret Class
	if err = strictUnmarshal(raw[0], &ret.Label); err != nil {
		return
	}
	if err = strictUnmarshal(raw[1], &ret.Color); err != nil {
		return
	}
	if err = strictUnmarshal(raw[2], &ret.IsNull); err != nil {
		return
	}
	if ret.Color, err = NormalizeColor(ret.Color); err != nil {
		return
	}
	ret.Label = utils.NormalizeName(ret.Label)
	*c = ret
	return
}

func strictUnmarshal(b []byte, v any) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return fmt.Errorf("unexpected null")
	}
	return json.Unmarshal(b, v)
}

// 单波段：取值 -> 类别
type Band map[float64]Class

// 升序取值
func (b Band) Values() []float64 {
	vs := make([]float64, 0, len(b))
	for v := range b {
		vs = append(vs, v)
	}
	sort.Float64s(vs)
	return vs
}

// 最小的空值
func (b Band) NullValue() (float64, bool) {
	for _, v := range b.Values() {
		if b[v].IsNull {
			return v, true
		}
	}
	return 0, false
}

func (b Band) MarshalJSON() ([]byte, error) {
	m := make(map[string]Class, len(b))
	for v, c := range b {
		m[formatValue(v)] = c
	}
	return json.Marshal(m)
}

func (b *Band) UnmarshalJSON(data []byte) error {
	var m map[string]Class
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	ret := make(Band, len(m))
	for k, c := range m {
		v, err := strconv.ParseFloat(strings.TrimSpace(k), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid value key %q", k)
		}
		ret[v] = c
	}
	*b = ret
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// 波段名 -> 单波段符号化
type Symbology map[string]Band

func Decode(s string) (ret Symbology, err error) {
	dec := json.NewDecoder(strings.NewReader(s))
	if err = dec.Decode(&ret); err != nil {
		err = fmt.Errorf("%w: %v", errs.ErrMetadata, err)
		return
	}
	if dec.More() {
		err = fmt.Errorf("%w: trailing data after symbology", errs.ErrMetadata)
		return
	}
	if ret == nil {
		ret = Symbology{}
	}
	return
}

func (s Symbology) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return utils.B2S(b), nil
}

// 解析失败时的处理策略
type Policy int

const (
	Degrade Policy = iota // 记录警告，按空符号化处理
	Strict                // 返回ErrMetadata
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "degrade":
		return Degrade, nil
	case "strict":
		return Strict, nil
	}
	return Degrade, fmt.Errorf("%w: unknown symbology policy %q", errs.ErrMetadata, s)
}

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "degrade"
}

// 从元数据中读取符号化，没有该键时返回空符号化
func FromMetadata(md map[string]string, p Policy) (Symbology, error) {
	raw, ok := md[MetadataKey]
	if !ok {
		return Symbology{}, nil
	}
	s, err := Decode(raw)
	if err != nil {
		if p == Strict {
			return nil, err
		}
		log.Warn(logTag+"malformed symbology metadata, use empty one", zap.Error(err))
		return Symbology{}, nil
	}
	return s, nil
}

func (s Symbology) ToMetadata(md map[string]string) error {
	raw, err := s.Encode()
	if err != nil {
		return err
	}
	md[MetadataKey] = raw
	return nil
}
