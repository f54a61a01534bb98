package services

import (
	"context"
	"sort"
	"strconv"

	"github.com/judgelink/apiserver/internal/parse"
	"github.com/judgelink/apiserver/types"
)

const (
	// maxListingItems caps contest-listing answer sets.
	maxListingItems = 50

	// cfFallbackTitle is shown for a Codeforces problem whose title could
	// not be resolved. AtCoder deliberately shows the bare token instead.
	cfFallbackTitle = "Problem"
)

// ResultBuilder assembles the final answer set from resolved titles.
type ResultBuilder struct {
	resolver *Resolver
}

func NewResultBuilder(resolver *Resolver) *ResultBuilder {
	return &ResultBuilder{resolver: resolver}
}

// Build produces the suggestion items for one parse result: exactly one item
// for a single-problem query, up to maxListingItems for a contest listing,
// and none when nothing matched or the contest map is empty.
func (b *ResultBuilder) Build(ctx context.Context, res parse.Result) []types.SuggestItem {
	switch res.Kind {
	case parse.KindProblem:
		return []types.SuggestItem{b.problemItem(ctx, res.Problem)}
	case parse.KindContest:
		return b.listingItems(ctx, res.Contest)
	default:
		return nil
	}
}

func (b *ResultBuilder) problemItem(ctx context.Context, q types.ProblemQuery) types.SuggestItem {
	title, found := b.resolver.Title(ctx, q)
	return suggestItem(q, title, found)
}

func (b *ResultBuilder) listingItems(ctx context.Context, q types.ContestQuery) []types.SuggestItem {
	contestMap := b.resolver.ContestMap(ctx, q.Platform, q.ContestID)
	if len(contestMap) == 0 {
		return nil
	}

	indices := sortedIndices(q.Platform, contestMap)
	if len(indices) > maxListingItems {
		indices = indices[:maxListingItems]
	}

	items := make([]types.SuggestItem, 0, len(indices))
	for _, index := range indices {
		var pq types.ProblemQuery
		switch q.Platform {
		case types.PlatformCodeforces:
			pq = parse.NewCodeforcesProblem(q.ContestID, index)
		case types.PlatformAtCoder:
			pq = parse.NewAtCoderProblem(q.ContestID, index)
		}
		items = append(items, suggestItem(pq, contestMap[index], true))
	}
	return items
}

func suggestItem(q types.ProblemQuery, title string, found bool) types.SuggestItem {
	display := q.Normalized
	switch {
	case found:
		display = q.Normalized + " - " + title
	case q.Platform == types.PlatformCodeforces:
		display = q.Normalized + " - " + cfFallbackTitle
	}
	return types.SuggestItem{
		ID:    q.ResultID(),
		Title: display,
		URL:   q.URL,
	}
}

// sortedIndices orders a contest map's indices for listing. Codeforces sorts
// by letter prefix first and trailing numeric suffix second (A, B, C1, C2, D);
// AtCoder sorts lexicographically.
func sortedIndices(platform types.Platform, contestMap types.ContestMap) []string {
	indices := make([]string, 0, len(contestMap))
	for index := range contestMap {
		indices = append(indices, index)
	}

	if platform == types.PlatformCodeforces {
		sort.Slice(indices, func(i, j int) bool {
			letterI, suffixI := splitIndex(indices[i])
			letterJ, suffixJ := splitIndex(indices[j])
			if letterI != letterJ {
				return letterI < letterJ
			}
			return suffixI < suffixJ
		})
	} else {
		sort.Strings(indices)
	}
	return indices
}

// splitIndex splits a Codeforces index into its letter prefix and numeric
// suffix. An absent suffix sorts as 0.
func splitIndex(index string) (string, int) {
	i := 0
	for i < len(index) && (index[i] < '0' || index[i] > '9') {
		i++
	}
	suffix, _ := strconv.Atoi(index[i:])
	return index[:i], suffix
}
