// Package vaultconf generates and classifies the threshold sets of a vault.
//
// A vault with N keys and a threshold of M is stored as the list of every
// M-sized combination of key indices. Generate builds that list, Classify
// recognises it again so it can be shown as "M of N" instead of "Custom".
package vaultconf

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ruteri/wingedcap-client/interfaces"
)

// MaxSets bounds the number of combinations Generate produces. Larger
// thresholds make records too big to store or poll.
const MaxSets = 1 << 20

// Kind tells canonical M-of-N vaults apart from arbitrary ones.
type Kind int

const (
	Custom Kind = iota
	Standard
)

// VaultConf is the classification of a vault's sets.
// Total and Required are only meaningful for Standard vaults.
type VaultConf struct {
	Kind     Kind
	Total    int
	Required int
}

// String returns the label shown next to a secret.
func (c VaultConf) String() string {
	if c.Kind == Standard {
		return fmt.Sprintf("Standard %d of %d", c.Required, c.Total)
	}
	return "Custom"
}

// Generate returns all C(total, required) combinations of key indices in
// lexicographic order, each combination sorted ascending.
// Thresholds with more than MaxSets combinations are rejected.
func Generate(total, required int) (interfaces.VaultSets, error) {
	if total < 0 || required < 1 || required > total {
		return nil, fmt.Errorf("%w: %d of %d", interfaces.ErrInvalidThreshold, required, total)
	}
	if total > interfaces.MaxKeys {
		return nil, fmt.Errorf("%w: at most %d keys supported", interfaces.ErrInvalidThreshold, interfaces.MaxKeys)
	}
	count, ok := binomial(total, required, MaxSets)
	if !ok {
		return nil, fmt.Errorf("%w: %d of %d has more than %d combinations", interfaces.ErrInvalidThreshold, required, total, MaxSets)
	}

	sets := make(interfaces.VaultSets, 0, count)
	current := make([]int, required)
	for i := range current {
		current[i] = i
	}

	for {
		sets = append(sets, append(interfaces.KeyIndexArray{}, current...))

		// Rightmost position that can still be advanced.
		i := required - 1
		for i >= 0 && current[i] == total-required+i {
			i--
		}
		if i < 0 {
			return sets, nil
		}
		current[i]++
		for j := i + 1; j < required; j++ {
			current[j] = current[j-1] + 1
		}
	}
}

// Classify returns Standard when sets are exactly every required-sized
// combination of keyCount keys, compared without regard to the order of the
// combinations or of the indices inside them. Anything else is Custom,
// including a vault without keys or without sets.
func Classify(sets interfaces.VaultSets, keyCount int) VaultConf {
	if keyCount < 1 || len(sets) == 0 {
		return VaultConf{Kind: Custom}
	}

	// Only one threshold can produce a given combination size.
	required := len(sets[0])
	if required < 1 || required > keyCount {
		return VaultConf{Kind: Custom}
	}
	if count, ok := binomial(keyCount, required, MaxSets); !ok || len(sets) != count {
		return VaultConf{Kind: Custom}
	}

	seen := make(map[string]struct{}, len(sets))
	for _, set := range sets {
		if len(set) != required {
			return VaultConf{Kind: Custom}
		}
		seen[canonicalKey(set)] = struct{}{}
	}
	if len(seen) != len(sets) {
		return VaultConf{Kind: Custom}
	}

	expected, err := Generate(keyCount, required)
	if err != nil {
		return VaultConf{Kind: Custom}
	}
	for _, set := range expected {
		if _, ok := seen[canonicalKey(set)]; !ok {
			return VaultConf{Kind: Custom}
		}
	}

	return VaultConf{Kind: Standard, Total: keyCount, Required: required}
}

func canonicalKey(set interfaces.KeyIndexArray) string {
	sorted := append([]int{}, set...)
	sort.Ints(sorted)

	parts := make([]string, len(sorted))
	for i, idx := range sorted {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ",")
}

// binomial returns C(n, k), or false once the count exceeds limit.
// The running value C(n-k+i, i) grows with i, so stopping early is exact.
func binomial(n, k, limit int) (int, bool) {
	if k < 0 || k > n {
		return 0, true
	}
	if k > n-k {
		k = n - k
	}
	res := 1
	for i := 1; i <= k; i++ {
		if res > math.MaxInt/(n-k+i) {
			return 0, false
		}
		res = res * (n - k + i) / i
		if res > limit {
			return 0, false
		}
	}
	return res, true
}
