package raster

import (
	"math"
	"testing"

	"github.com/wgdzlh/tilemask/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDTypeCoerce(t *testing.T) {
	tests := []struct {
		dt   DType
		in   float64
		want float64
	}{
		{Uint8, 300, 255},
		{Uint8, -4, 0},
		{Uint8, 3.9, 3},
		{Int8, -3.9, -3},
		{Int16, 40000, math.MaxInt16},
		{Int32, math.NaN(), 0},
		{Float64, 1.25, 1.25},
		{Float32, 0.1, float64(float32(0.1))},
	}
	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dt.Coerce(tt.in))
		})
	}
}

func TestDTypeKinds(t *testing.T) {
	assert.True(t, Uint16.IsInteger())
	assert.False(t, Float32.IsInteger())
	assert.Equal(t, KindSigned, Int64.Kind())
	assert.True(t, Int8.IsSigned())
	assert.True(t, Float32.IsSigned())
	assert.False(t, Uint16.IsSigned())
	assert.Equal(t, 8, Uint64.Size())
	assert.Equal(t, 1, Int8.Size())
	assert.False(t, Unknown.Valid())

	dt, err := ParseDType(" Byte ")
	require.NoError(t, err)
	assert.Equal(t, Uint8, dt)
	_, err = ParseDType("complex64")
	assert.ErrorIs(t, err, errs.ErrType)
}

func TestPromote(t *testing.T) {
	tests := []struct {
		a, b, want DType
	}{
		{Uint8, Uint8, Uint8},
		{Uint8, Uint16, Uint16},
		{Int8, Uint8, Int16},
		{Int32, Uint16, Int32},
		{Int8, Uint64, Float64},
		{Uint16, Float32, Float32},
		{Int32, Float32, Float64},
		{Float32, Float64, Float64},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Promote(tt.a, tt.b), "%s+%s", tt.a, tt.b)
		assert.Equal(t, tt.want, Promote(tt.b, tt.a), "%s+%s", tt.b, tt.a)
	}
}

func TestArrayOps(t *testing.T) {
	a, err := FromValues(2, 3, Uint8, []float64{1, 2, 3, 4, 5, 300})
	require.NoError(t, err)
	assert.Equal(t, 255.0, a.At(1, 2))

	_, err = FromValues(2, 2, Uint8, []float64{1})
	assert.ErrorIs(t, err, errs.ErrShape)

	sub := a.Gather([]int{1}, []int{0, 2})
	assert.Equal(t, []float64{4, 255}, sub.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 255}, a.Data)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 255}, a.Unique())

	dst := NewArray(2, 3, Uint8)
	dst.CopyWindow(a, 0, 1, 5, 5)
	assert.Equal(t, []float64{0, 2, 3, 0, 5, 255}, dst.Data)

	f := a.Astype(Int8)
	assert.Equal(t, 127.0, f.At(1, 2))
}

func TestStackAndMosaic(t *testing.T) {
	a := NewArray(2, 2, Uint8)
	b := NewArray(2, 2, Int16)
	b.Fill(-1)
	s, err := StackArrays([]*Array{a, b})
	require.NoError(t, err)
	assert.Equal(t, Int16, s.DType)
	assert.Equal(t, -1.0, s.At(1, 1, 1))
	assert.Equal(t, 0.0, s.Band(0).At(0, 0))

	_, err = StackArrays([]*Array{a, NewArray(1, 2, Uint8)})
	assert.ErrorIs(t, err, errs.ErrShape)

	m := &Mosaic{Names: []string{"a", "b"}, Bands: []*Array{a, b}}
	assert.ErrorIs(t, m.Validate(), errs.ErrType)
	m.Bands[1] = NewArray(2, 2, Uint8)
	require.NoError(t, m.Validate())

	src := m.Clone()
	src.Bands[0].Fill(9)
	m.Paste(src, 1, 0, 1, 2)
	assert.Equal(t, []float64{0, 9, 0, 9}, m.Bands[0].Data)
}
