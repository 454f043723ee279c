package symbology

import (
	"testing"

	"github.com/wgdzlh/tilemask/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrict(t *testing.T) {
	s, err := Decode(`{"class": {"0": ["NULL", "#FFFFFF", true], "1.5": ["water", "#00f", false]}}`)
	require.NoError(t, err)
	assert.Equal(t, Class{Label: "water", Color: "#0000ff"}, s["class"][1.5])
	v, ok := s["class"].NullValue()
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	bad := []string{
		`{"class": {"0": ["NULL", "#ffffff"]}}`,
		`{"class": {"x": ["NULL", "#ffffff", true]}}`,
		`{"class": {"0": ["NULL", "white-ish", true]}}`,
		`{"class": {"0": [1, "#ffffff", true]}}`,
		`{'class': {0: ('NULL', '#ffffff', True)}}`,
		`{"class": {}} {}`,
	}
	for _, b := range bad {
		_, err = Decode(b)
		assert.ErrorIs(t, err, errs.ErrMetadata, b)
	}
}

func TestEncodeDecode(t *testing.T) {
	s := Symbology{"class": Blank()}
	raw, err := s.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"class": {"0": ["NULL", "#ffffff", true], "1": ["", "#ffffff", false]}}`, raw)
}

func TestFromMetadataPolicy(t *testing.T) {
	md := map[string]string{MetadataKey: "not json"}
	s, err := FromMetadata(md, Degrade)
	require.NoError(t, err)
	assert.Empty(t, s)

	_, err = FromMetadata(md, Strict)
	assert.ErrorIs(t, err, errs.ErrMetadata)

	s, err = FromMetadata(map[string]string{}, Strict)
	require.NoError(t, err)
	assert.Empty(t, s)

	p, err := ParsePolicy("Strict")
	require.NoError(t, err)
	assert.Equal(t, Strict, p)
	_, err = ParsePolicy("lenient")
	assert.Error(t, err)
}

func TestMergeBand(t *testing.T) {
	b1 := Band{
		0: {Label: "NULL", Color: "#ffffff", IsNull: true},
		1: {Label: "water", Color: "#0000ff"},
	}
	b2 := Band{
		1: {Label: "lake", Color: "#00ffff"},
		2: {Label: "forest", Color: "#00ff00"},
	}
	m := MergeBand([]float64{0, 1, 2, 5}, b1, b2)
	assert.Equal(t, Class{Label: NullLabel, Color: DefaultColor, IsNull: true}, m[0])
	assert.Equal(t, Class{Label: "water", Color: "#0000ff"}, m[1])
	assert.Equal(t, Class{Label: "forest", Color: "#00ff00"}, m[2])
	assert.Equal(t, "", m[5].Label)
	assert.False(t, m[5].IsNull)
	assert.NotEmpty(t, m[5].Color)
	for _, v := range []float64{0, 1, 2} {
		assert.NotEqual(t, m[v].Color, m[5].Color)
	}
	assert.Len(t, m, 4)
}

func TestMergeBandDeclaredNull(t *testing.T) {
	m := MergeBand([]float64{0, 1}, Band{0: {Label: "background", Color: "#123456", IsNull: true}}, nil)
	assert.Equal(t, Class{Label: NullLabel, Color: DefaultColor, IsNull: true}, m[0])
	assert.Len(t, m, 2)
	assert.NotEqual(t, DefaultColor, m[1].Color)
}

func TestMergeBandSynthesizesNull(t *testing.T) {
	// 两边都没有空值，0未被声明
	m := MergeBand([]float64{0, 3}, Band{3: {Label: "a", Color: "#ff0000"}}, nil)
	assert.Equal(t, Class{Label: NullLabel, Color: DefaultColor, IsNull: true}, m[0])
	assert.Len(t, m, 2)

	// 0已被声明，空值为最大值+1
	m = MergeBand([]float64{0, 3}, Band{0: {Label: "a", Color: "#ff0000"}}, Band{7: {Label: "b"}})
	assert.Equal(t, Class{Label: NullLabel, Color: DefaultColor, IsNull: true}, m[8])
	assert.Equal(t, "b", m[7].Label)
	assert.NotEmpty(t, m[7].Color)
	assert.NotEqual(t, m[3].Color, m[7].Color)
}

func TestPalette(t *testing.T) {
	p := Palette()
	seen := map[string]bool{}
	for _, c := range p {
		assert.Len(t, c, 7)
		assert.False(t, seen[c], c)
		seen[c] = true
	}
	used := map[string]bool{p[0]: true}
	pk := newPicker(used)
	assert.Equal(t, p[1], pk.pick())
}
