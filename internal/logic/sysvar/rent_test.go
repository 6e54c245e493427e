package sysvar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRentMinimumBalance(t *testing.T) {
	r := DefaultRent()
	// (128 + 105) * 3480 * 2
	assert.Equal(t, uint64(1_621_680), r.MinimumBalance(105))
	// (128 + 41) * 3480 * 2
	assert.Equal(t, uint64(1_176_240), r.MinimumBalance(41))
	assert.Equal(t, uint64(890_880), r.MinimumBalance(0))
}

func TestRentIsExempt(t *testing.T) {
	r := DefaultRent()
	min := r.MinimumBalance(41)
	assert.True(t, r.IsExempt(min, 41))
	assert.False(t, r.IsExempt(min-1, 41))
}

func TestRentEncodeDecode(t *testing.T) {
	data := DefaultRent().Encode()
	require.Len(t, data, 17)

	got, err := DecodeRent(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultRent(), got)

	_, err = DecodeRent(data[:8])
	assert.Error(t, err)
}
