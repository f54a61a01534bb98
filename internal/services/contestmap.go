package services

import (
	"strings"

	"github.com/judgelink/apiserver/internal/upstream"
	"github.com/judgelink/apiserver/types"
)

// buildContestMap reshapes upstream problem records into the cached
// index->title map for one contest. The lazy resolution path and the bulk
// preload path both go through here, so an entry produced by either origin is
// byte-for-byte reproducible from the same upstream data.
//
// Filter rules: titles must be non-empty after trimming; Codeforces keeps any
// letter-led index as returned; AtCoder keeps only single lowercase letters.
// On duplicate index the first occurrence wins.
func buildContestMap(platform types.Platform, problems []upstream.Problem) types.ContestMap {
	contestMap := make(types.ContestMap)
	for _, p := range problems {
		title := strings.TrimSpace(p.Name)
		if title == "" {
			continue
		}
		if !validProblemIndex(platform, p.Index) {
			continue
		}
		if _, exists := contestMap[p.Index]; exists {
			continue
		}
		contestMap[p.Index] = title
	}
	return contestMap
}

func validProblemIndex(platform types.Platform, index string) bool {
	switch platform {
	case types.PlatformCodeforces:
		return index != "" && isLetter(index[0])
	case types.PlatformAtCoder:
		return len(index) == 1 && index[0] >= 'a' && index[0] <= 'z'
	default:
		return false
	}
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
