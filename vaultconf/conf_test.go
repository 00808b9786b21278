package vaultconf

import (
	"fmt"
	"math"
	"testing"

	"github.com/ruteri/wingedcap-client/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	sets, err := Generate(4, 2)
	require.NoError(t, err)
	assert.Equal(t, interfaces.VaultSets{{0, 1}, {0, 2}, {0, 3}, {1, 2}, {1, 3}, {2, 3}}, sets)

	sets, err = Generate(3, 3)
	require.NoError(t, err)
	assert.Equal(t, interfaces.VaultSets{{0, 1, 2}}, sets)

	sets, err = Generate(3, 1)
	require.NoError(t, err)
	assert.Equal(t, interfaces.VaultSets{{0}, {1}, {2}}, sets)
}

func TestGenerateInvalid(t *testing.T) {
	_, err := Generate(3, 0)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)

	_, err = Generate(3, 4)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)

	_, err = Generate(0, 1)
	assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold)
}

func TestGenerateTooLarge(t *testing.T) {
	for _, tc := range [][2]int{{70, 35}, {66, 33}, {255, 127}, {interfaces.MaxKeys + 1, 1}} {
		_, err := Generate(tc[0], tc[1])
		assert.ErrorIs(t, err, interfaces.ErrInvalidThreshold, "%d of %d", tc[1], tc[0])
	}

	sets, err := Generate(interfaces.MaxKeys, 1)
	require.NoError(t, err)
	assert.Len(t, sets, interfaces.MaxKeys)

	sets, err = Generate(interfaces.MaxKeys, interfaces.MaxKeys)
	require.NoError(t, err)
	assert.Len(t, sets, 1)
}

func TestBinomial(t *testing.T) {
	count, ok := binomial(10, 3, MaxSets)
	assert.True(t, ok)
	assert.Equal(t, 120, count)

	count, ok = binomial(20, 10, MaxSets)
	assert.True(t, ok)
	assert.Equal(t, 184756, count)

	_, ok = binomial(70, 35, MaxSets)
	assert.False(t, ok)

	_, ok = binomial(1<<40, 1<<20, math.MaxInt)
	assert.False(t, ok)
}

func TestClassifyHugeKeyCount(t *testing.T) {
	assert.Equal(t, Custom, Classify(interfaces.VaultSets{{0, 1}}, math.MaxInt))
}

func TestGenerateProperties(t *testing.T) {
	for total := 1; total <= 8; total++ {
		for required := 1; required <= total; required++ {
			t.Run(fmt.Sprintf("%d_of_%d", required, total), func(t *testing.T) {
				sets, err := Generate(total, required)
				require.NoError(t, err)
				count, ok := binomial(total, required, MaxSets)
				require.True(t, ok)
				require.Len(t, sets, count)

				seen := make(map[string]bool)
				for _, set := range sets {
					require.Len(t, set, required)
					for i, idx := range set {
						assert.GreaterOrEqual(t, idx, 0)
						assert.Less(t, idx, total)
						if i > 0 {
							assert.Less(t, set[i-1], idx, "indices must be distinct and ascending")
						}
					}
					key := canonicalKey(set)
					assert.False(t, seen[key], "duplicate combination %v", set)
					seen[key] = true
				}

				require.NoError(t, sets.Validate(total))
				assert.Equal(t, VaultConf{Kind: Standard, Total: total, Required: required}, Classify(sets, total))
			})
		}
	}
}

func TestClassifyIgnoresOrder(t *testing.T) {
	sets := interfaces.VaultSets{{2, 1}, {0, 2}, {1, 0}}
	conf := Classify(sets, 3)
	assert.Equal(t, Standard, conf.Kind)
	assert.Equal(t, "Standard 2 of 3", conf.String())
}

func TestClassifyCustom(t *testing.T) {
	tests := []struct {
		name     string
		sets     interfaces.VaultSets
		keyCount int
	}{
		{"missing combination", interfaces.VaultSets{{0, 1}, {1, 2}}, 3},
		{"mixed sizes", interfaces.VaultSets{{0}, {1, 2}, {0, 2}}, 3},
		{"duplicate combination", interfaces.VaultSets{{0, 1}, {0, 1}, {1, 2}}, 3},
		{"repeated index", interfaces.VaultSets{{0, 0}, {0, 2}, {1, 2}}, 3},
		{"no keys", interfaces.VaultSets{}, 0},
		{"no sets", nil, 3},
		{"empty combination", interfaces.VaultSets{{}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Classify(tt.sets, tt.keyCount)
			assert.Equal(t, Custom, conf.Kind)
			assert.Equal(t, "Custom", conf.String())
		})
	}
}
