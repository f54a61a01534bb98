package types

// Platform identifies one of the supported judge platforms.
type Platform string

// Supported platform values.
const (
	// PlatformCodeforces identifies codeforces.com.
	PlatformCodeforces Platform = "CF"

	// PlatformAtCoder identifies atcoder.jp.
	PlatformAtCoder Platform = "ATC"
)

// CacheKeyPrefix returns the lowercase prefix used to namespace cache keys
// for this platform ("cf" or "atc").
func (p Platform) CacheKeyPrefix() string {
	switch p {
	case PlatformCodeforces:
		return "cf"
	case PlatformAtCoder:
		return "atc"
	default:
		return ""
	}
}

// CacheKey returns the flat-namespace cache key for a contest on a platform,
// e.g. "cf:150" or "atc:abc150". The prefix guarantees global uniqueness
// across platforms within the shared store.
func CacheKey(platform Platform, contestID string) string {
	return platform.CacheKeyPrefix() + ":" + contestID
}

// ProblemQuery is the canonical parse result for a single problem.
//
// Normalized and URL are pure deterministic functions of
// (Platform, ContestID, ProblemIndex); two queries that normalize to the
// same triple are indistinguishable downstream.
type ProblemQuery struct {
	// Platform is the judge platform the problem belongs to.
	Platform Platform `json:"platform"`

	// Normalized is the canonical token, e.g. "150D" (Codeforces) or
	// "abc150_d" (AtCoder). It serves both as the display prefix and as
	// the result-id component.
	Normalized string `json:"normalized"`

	// URL is the fully qualified deep link to the problem page.
	URL string `json:"url"`

	// ContestID is the platform-specific contest identifier. Codeforces
	// uses decimal digits; AtCoder uses a lowercase prefix plus exactly
	// three zero-padded digits.
	ContestID string `json:"contest_id"`

	// ProblemIndex is the platform-specific problem letter/code.
	// Codeforces: uppercase letter plus optional digits. AtCoder: a
	// single lowercase letter.
	ProblemIndex string `json:"problem_index"`
}

// ResultID returns the stable suggestion identifier "{PLATFORM}:{normalized}"
// from which the descriptor can be re-derived without re-parsing free text.
func (q ProblemQuery) ResultID() string {
	return string(q.Platform) + ":" + q.Normalized
}

// ContestQuery names a contest without a problem index. It is produced when
// the raw text matches a contest-listing form.
type ContestQuery struct {
	// Platform is the judge platform the contest belongs to.
	Platform Platform `json:"platform"`

	// ContestID is the normalized platform-specific contest identifier.
	ContestID string `json:"contest_id"`
}

// ContestMap maps problem index to title for one contest on one platform.
// It is the unit of caching and the unit of upstream fetch. Key shape follows
// the platform: Codeforces stores the index as returned by the API, AtCoder
// stores a single lowercase letter.
type ContestMap map[string]string

// SuggestItem is one entry of the answer set handed back to the transport,
// rendered there as a markdown-style link suggestion.
type SuggestItem struct {
	// ID is the stable result identifier, format "{PLATFORM}:{normalized}".
	ID string `json:"id"`

	// Title is the composed display title, e.g. "150D - Divide by 2 or 3".
	Title string `json:"title"`

	// URL is the canonical deep link for the problem.
	URL string `json:"url"`
}
