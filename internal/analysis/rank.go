package analysis

import (
	"path"
	"sort"
	"strings"
)

// hintedHeader is one candidate provider header with its accumulated
// hints.
type hintedHeader struct {
	Header Header
	Hint   Hint
}

// rankHeaders deduplicates and orders candidate headers for one
// reference to symName:
//
//  1. any physical candidate whose filename stem equals the referenced
//     identifier (case-insensitively) gains a NameMatch hint;
//  2. candidates are stable-sorted by the header order and equal headers
//     fold into one, OR-combining their hints;
//  3. the folded list is stable-sorted by hint preference, NameMatch
//     before Complete, ties preserving order.
//
// Hints are then dropped: the first header of the result is the
// preferred provider.
func rankHeaders(candidates []hintedHeader, symName string) []Header {
	if len(candidates) == 0 {
		return nil
	}

	cands := make([]hintedHeader, len(candidates))
	copy(cands, candidates)

	for i := range cands {
		if cands[i].Header.Kind == HeaderPhysical && nameMatch(cands[i].Header.File.Name, symName) {
			cands[i].Hint |= HintNameMatch
		}
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return compareHeaders(cands[i].Header, cands[j].Header) < 0
	})

	folded := cands[:0]
	for _, c := range cands {
		if n := len(folded); n > 0 && compareHeaders(folded[n-1].Header, c.Header) == 0 {
			folded[n-1].Hint |= c.Hint
			continue
		}
		folded = append(folded, c)
	}

	sort.SliceStable(folded, func(i, j int) bool {
		return folded[i].Hint.rankScore() > folded[j].Hint.rankScore()
	})

	out := make([]Header, len(folded))
	for i, c := range folded {
		out[i] = c.Header
	}
	return out
}

// nameMatch compares a header file name's stem with the referenced
// identifier, case-insensitively.
func nameMatch(fileName, symName string) bool {
	base := path.Base(fileName)
	stem := strings.TrimSuffix(base, path.Ext(base))
	return strings.EqualFold(stem, symName)
}
