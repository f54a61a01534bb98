// Package parse recognizes problem and contest tokens for the two supported
// judge platforms and normalizes them to canonical descriptors.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/judgelink/apiserver/types"
)

// Kind discriminates the parse result variants.
type Kind int

const (
	// KindNone means the raw text matched no grammar rule.
	KindNone Kind = iota

	// KindProblem means the raw text named a single problem.
	KindProblem

	// KindContest means the raw text named a contest without a problem index.
	KindContest
)

// Result is the tagged outcome of parsing one raw query. Exactly one of
// Problem or Contest is meaningful, selected by Kind.
type Result struct {
	Kind    Kind
	Problem types.ProblemQuery
	Contest types.ContestQuery
}

const (
	cfProblemURLFormat  = "https://codeforces.com/contest/%s/problem/%s"
	atcProblemURLFormat = "https://atcoder.jp/contests/%s/tasks/%s"
)

// All patterns are anchored to the whole string. Matching is case-insensitive
// on letters; output case is fixed by the normalization rules. The {1,3}
// quantifier caps AtCoder contest numbers, so four-digit numbers fall through
// to no-match.
var (
	cfContestPattern  = regexp.MustCompile(`^[0-9]+$`)
	atcContestPattern = regexp.MustCompile(`(?i)^(abc|arc|agc|ahc|apc)([0-9]{1,3})$`)
	cfProblemPattern  = regexp.MustCompile(`^([0-9]+)([A-Za-z][0-9]*)$`)
	atcProblemPattern = regexp.MustCompile(`(?i)^(abc|arc|agc|ahc|apc)([0-9]{1,3})_([A-Za-z])$`)
	atcCompactPattern = regexp.MustCompile(`(?i)^(abc|arc|agc|ahc|apc)([0-9]{1,3})([A-Za-z])$`)
)

// matchers are tried in fixed precedence order; the first match wins.
var matchers = []func(string) (Result, bool){
	matchCodeforcesContest,
	matchAtCoderContest,
	matchCodeforcesProblem,
	matchAtCoderProblem,
	matchAtCoderCompactProblem,
}

// Parse normalizes one raw query. It trims surrounding whitespace once and
// tries each grammar rule in precedence order.
func Parse(raw string) Result {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Result{}
	}
	for _, match := range matchers {
		if res, ok := match(raw); ok {
			return res
		}
	}
	return Result{}
}

func matchCodeforcesContest(raw string) (Result, bool) {
	if !cfContestPattern.MatchString(raw) {
		return Result{}, false
	}
	return Result{
		Kind: KindContest,
		Contest: types.ContestQuery{
			Platform:  types.PlatformCodeforces,
			ContestID: raw,
		},
	}, true
}

func matchAtCoderContest(raw string) (Result, bool) {
	groups := atcContestPattern.FindStringSubmatch(raw)
	if groups == nil {
		return Result{}, false
	}
	return Result{
		Kind: KindContest,
		Contest: types.ContestQuery{
			Platform:  types.PlatformAtCoder,
			ContestID: normalizeAtCoderContestID(groups[1], groups[2]),
		},
	}, true
}

func matchCodeforcesProblem(raw string) (Result, bool) {
	groups := cfProblemPattern.FindStringSubmatch(raw)
	if groups == nil {
		return Result{}, false
	}
	return Result{
		Kind:    KindProblem,
		Problem: NewCodeforcesProblem(groups[1], groups[2]),
	}, true
}

func matchAtCoderProblem(raw string) (Result, bool) {
	groups := atcProblemPattern.FindStringSubmatch(raw)
	if groups == nil {
		return Result{}, false
	}
	contestID := normalizeAtCoderContestID(groups[1], groups[2])
	return Result{
		Kind:    KindProblem,
		Problem: NewAtCoderProblem(contestID, groups[3]),
	}, true
}

func matchAtCoderCompactProblem(raw string) (Result, bool) {
	groups := atcCompactPattern.FindStringSubmatch(raw)
	if groups == nil {
		return Result{}, false
	}
	contestID := normalizeAtCoderContestID(groups[1], groups[2])
	return Result{
		Kind:    KindProblem,
		Problem: NewAtCoderProblem(contestID, groups[3]),
	}, true
}

// NewCodeforcesProblem builds the canonical descriptor for a Codeforces
// problem. The index is uppercased; normalized is contest id + index.
func NewCodeforcesProblem(contestID, index string) types.ProblemQuery {
	index = strings.ToUpper(index)
	return types.ProblemQuery{
		Platform:     types.PlatformCodeforces,
		Normalized:   contestID + index,
		URL:          fmt.Sprintf(cfProblemURLFormat, contestID, index),
		ContestID:    contestID,
		ProblemIndex: index,
	}
}

// NewAtCoderProblem builds the canonical descriptor for an AtCoder problem.
// The contest id must already be normalized; the letter is lowercased.
func NewAtCoderProblem(contestID, letter string) types.ProblemQuery {
	letter = strings.ToLower(letter)
	normalized := contestID + "_" + letter
	return types.ProblemQuery{
		Platform:     types.PlatformAtCoder,
		Normalized:   normalized,
		URL:          fmt.Sprintf(atcProblemURLFormat, contestID, normalized),
		ContestID:    contestID,
		ProblemIndex: letter,
	}
}

// normalizeAtCoderContestID lowercases the prefix and left-pads the numeric
// part to exactly three digits ("abc10" -> "abc010").
func normalizeAtCoderContestID(prefix, digits string) string {
	n, _ := strconv.Atoi(digits)
	return fmt.Sprintf("%s%03d", strings.ToLower(prefix), n)
}

// DecodeResultID re-derives a descriptor from a suggestion id of the form
// "{PLATFORM}:{normalized}". The normalized token is re-parsed, so the decode
// path and the free-text parse path agree by construction.
func DecodeResultID(id string) (Result, error) {
	platform, token, found := strings.Cut(id, ":")
	if !found || platform == "" || token == "" {
		return Result{}, fmt.Errorf("malformed result id %q", id)
	}

	res := Parse(token)
	if res.Kind == KindNone {
		return Result{}, fmt.Errorf("result id %q does not decode to a query", id)
	}

	var got types.Platform
	switch res.Kind {
	case KindProblem:
		got = res.Problem.Platform
	case KindContest:
		got = res.Contest.Platform
	}
	if string(got) != platform {
		return Result{}, fmt.Errorf("result id %q platform mismatch", id)
	}
	return res, nil
}
