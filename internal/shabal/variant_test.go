package shabal

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVariantsAgreeWithScalar(t *testing.T) {
	var gensig [32]byte
	_, _ = rand.Read(gensig[:])

	const nonceCount = 37 // deliberately not a multiple of any lane width
	data := make([]byte, nonceCount*ScoopBytes)
	_, _ = rand.Read(data)

	want := make([]uint64, nonceCount)
	scalarVariant{}.HashScoops(gensig, data, nonceCount, want)

	variants := []Variant{sse2Variant, avxVariant, avx2Variant, avx512Variant, neonVariant}
	for _, v := range variants {
		got := make([]uint64, nonceCount)
		v.HashScoops(gensig, data, nonceCount, got)
		require.Equal(t, want, got, "variant %s disagreed with the scalar core", v.Name())
	}
}

func TestSelectReturnsAVariant(t *testing.T) {
	v := Select()
	require.NotNil(t, v)
	require.Greater(t, v.LaneWidth(), 0)
}
