package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/judgelink/apiserver/internal/store"
	"github.com/judgelink/apiserver/internal/upstream"
	"github.com/judgelink/apiserver/types"
)

// KV is the contest cache store handle. Get returns store.ErrNotFound for
// absent keys.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
}

// CodeforcesAPI fetches the problems of one Codeforces contest.
type CodeforcesAPI interface {
	ContestProblems(ctx context.Context, contestID string) ([]upstream.Problem, error)
}

// AtCoderAPI fetches the full AtCoder problem catalog.
type AtCoderAPI interface {
	Problems(ctx context.Context) ([]upstream.Problem, error)
}

// Resolver turns a contest into its index->title map, consulting the cache
// first and falling back to the platform upstream on a miss.
type Resolver struct {
	cache KV
	cf    CodeforcesAPI
	atc   AtCoderAPI
}

func NewResolver(cache KV, cf CodeforcesAPI, atc AtCoderAPI) *Resolver {
	return &Resolver{cache: cache, cf: cf, atc: atc}
}

// ContestMap returns the index->title map for a contest, possibly empty.
//
// A valid cache entry is served without an upstream call. An absent or
// corrupt entry triggers a fetch; the freshly built map is persisted
// best-effort when non-empty. A failed fetch yields an empty map, never an
// error, so the next request for the same contest retries naturally.
func (r *Resolver) ContestMap(ctx context.Context, platform types.Platform, contestID string) types.ContestMap {
	key := types.CacheKey(platform, contestID)

	if stored, err := r.cache.Get(ctx, key); err == nil {
		var contestMap types.ContestMap
		jsonErr := json.Unmarshal([]byte(stored), &contestMap)
		if jsonErr == nil {
			return contestMap
		}
		log.Printf("warn: corrupt cache entry %q, refetching: %v", key, jsonErr)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("warn: cache read failed for %q: %v", key, err)
	}

	problems, err := r.fetch(ctx, platform, contestID)
	if err != nil {
		log.Printf("warn: upstream fetch failed for %q: %v", key, err)
		return types.ContestMap{}
	}

	contestMap := buildContestMap(platform, problems)
	if len(contestMap) > 0 {
		// json.Marshal sorts map keys, so the stored blob is deterministic.
		value, marshalErr := json.Marshal(contestMap)
		if marshalErr == nil {
			if putErr := r.cache.Put(ctx, key, string(value)); putErr != nil {
				log.Printf("warn: cache write failed for %q: %v", key, putErr)
			}
		}
	}
	return contestMap
}

// Title resolves the display title for a single problem. The second return
// reports whether a title was found.
func (r *Resolver) Title(ctx context.Context, q types.ProblemQuery) (string, bool) {
	contestMap := r.ContestMap(ctx, q.Platform, q.ContestID)
	title, ok := contestMap[q.ProblemIndex]
	return title, ok
}

func (r *Resolver) fetch(ctx context.Context, platform types.Platform, contestID string) ([]upstream.Problem, error) {
	switch platform {
	case types.PlatformCodeforces:
		return r.cf.ContestProblems(ctx, contestID)
	case types.PlatformAtCoder:
		all, err := r.atc.Problems(ctx)
		if err != nil {
			return nil, err
		}
		var problems []upstream.Problem
		for _, p := range all {
			if p.ContestID == contestID {
				problems = append(problems, p)
			}
		}
		return problems, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", platform)
	}
}
