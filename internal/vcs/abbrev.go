package vcs

import (
	"sort"

	"github.com/go-git/go-git/v5/plumbing"
)

// Abbreviations maps commit hashes to revision ids that are unique within
// the set they were computed from.
type Abbreviations map[plumbing.Hash]string

// Abbreviate gives every hash the shortest prefix, at least ShortIDLength
// hex digits long, that no other hash in hashes starts with.
func Abbreviate(hashes []plumbing.Hash) Abbreviations {
	hexes := make([]string, 0, len(hashes))
	seen := make(map[plumbing.Hash]struct{}, len(hashes))
	for _, h := range hashes {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		hexes = append(hexes, h.String())
	}
	sort.Strings(hexes)

	// In sorted order the longest prefix a hash shares with any other is
	// the one it shares with a neighbour.
	abbrevs := make(Abbreviations, len(hexes))
	for i, hex := range hexes {
		n := ShortIDLength
		if i > 0 {
			n = max(n, commonPrefix(hex, hexes[i-1])+1)
		}
		if i+1 < len(hexes) {
			n = max(n, commonPrefix(hex, hexes[i+1])+1)
		}
		n = min(n, len(hex))
		abbrevs[plumbing.NewHash(hex)] = hex[:n]
	}
	return abbrevs
}

// Get returns the abbreviation of hash, falling back to ShortID for hashes
// outside the set.
func (a Abbreviations) Get(hash plumbing.Hash) string {
	if id, ok := a[hash]; ok {
		return id
	}
	return ShortID(hash)
}

func commonPrefix(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
