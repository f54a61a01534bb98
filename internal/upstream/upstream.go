// Package upstream holds the read-only clients for the judge platform data
// sources consumed by the title resolver.
package upstream

// Problem is one problem record as reported by an upstream data source.
type Problem struct {
	// ContestID is the contest the problem belongs to. Codeforces responses
	// scoped to a single contest leave it empty.
	ContestID string

	// Index is the problem index within its contest, as returned upstream.
	Index string

	// Name is the human-readable problem title.
	Name string
}
