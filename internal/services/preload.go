package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/judgelink/apiserver/internal/store"
	"github.com/judgelink/apiserver/internal/upstream"
	"github.com/judgelink/apiserver/types"
)

// Preloader bulk-loads contest cache entries from a full upstream dump.
// It writes through the same filter/format rules as the lazy resolution
// path, so a preloaded entry and a lazily created one for the same contest
// are interchangeable.
type Preloader struct {
	cache KV
}

func NewPreloader(cache KV) *Preloader {
	return &Preloader{cache: cache}
}

// PreloadOptions tunes one preload run.
type PreloadOptions struct {
	// SkipExisting skips contests whose cache key is already present.
	SkipExisting bool

	// MaxKeys caps the number of new cache keys inserted per run.
	// Zero means unlimited.
	MaxKeys int
}

// PreloadStats summarizes one preload run.
type PreloadStats struct {
	// Contests counts dump contests that produced a non-empty map.
	Contests int `json:"contests"`

	// Inserted counts cache keys written.
	Inserted int `json:"inserted"`

	// Skipped counts contests skipped because their key already existed
	// or the MaxKeys cap was reached.
	Skipped int `json:"skipped"`
}

type cfDumpProblem struct {
	ContestID json.Number `json:"contestId"`
	Index     string      `json:"index"`
	Name      string      `json:"name"`
}

// PreloadCodeforces loads a Codeforces problemset dump: either a raw array
// of problem records or the API-shaped wrapper object around one.
func (p *Preloader) PreloadCodeforces(ctx context.Context, data []byte, opts PreloadOptions) (PreloadStats, error) {
	records, err := decodeCodeforcesDump(data)
	if err != nil {
		return PreloadStats{}, err
	}

	grouped := make(map[string][]upstream.Problem)
	for _, r := range records {
		contestID := r.ContestID.String()
		if contestID == "" {
			continue
		}
		grouped[contestID] = append(grouped[contestID], upstream.Problem{
			Index: r.Index,
			Name:  r.Name,
		})
	}
	return p.load(ctx, types.PlatformCodeforces, grouped, opts)
}

// PreloadAtCoder loads a full problems.json dump grouped by contest.
func (p *Preloader) PreloadAtCoder(ctx context.Context, data []byte, opts PreloadOptions) (PreloadStats, error) {
	records, err := upstream.DecodeAtCoderProblems(data)
	if err != nil {
		return PreloadStats{}, err
	}

	grouped := make(map[string][]upstream.Problem)
	for _, r := range records {
		if r.ContestID == "" {
			continue
		}
		grouped[r.ContestID] = append(grouped[r.ContestID], r)
	}
	return p.load(ctx, types.PlatformAtCoder, grouped, opts)
}

func decodeCodeforcesDump(data []byte) ([]cfDumpProblem, error) {
	var records []cfDumpProblem
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapper struct {
		Status string `json:"status"`
		Result struct {
			Problems []cfDumpProblem `json:"problems"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("malformed codeforces dump: %w", err)
	}
	if wrapper.Status != "" && wrapper.Status != "OK" {
		return nil, fmt.Errorf("codeforces dump status %q", wrapper.Status)
	}
	return wrapper.Result.Problems, nil
}

func (p *Preloader) load(ctx context.Context, platform types.Platform, grouped map[string][]upstream.Problem, opts PreloadOptions) (PreloadStats, error) {
	contestIDs := make([]string, 0, len(grouped))
	for contestID := range grouped {
		contestIDs = append(contestIDs, contestID)
	}
	sort.Strings(contestIDs)

	var stats PreloadStats
	for _, contestID := range contestIDs {
		contestMap := buildContestMap(platform, grouped[contestID])
		if len(contestMap) == 0 {
			continue
		}
		stats.Contests++

		key := types.CacheKey(platform, contestID)
		if opts.SkipExisting {
			_, err := p.cache.Get(ctx, key)
			if err == nil {
				stats.Skipped++
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return stats, fmt.Errorf("check existing key %q: %w", key, err)
			}
		}
		if opts.MaxKeys > 0 && stats.Inserted >= opts.MaxKeys {
			stats.Skipped++
			continue
		}

		value, err := json.Marshal(contestMap)
		if err != nil {
			return stats, err
		}
		if err := p.cache.Put(ctx, key, string(value)); err != nil {
			return stats, fmt.Errorf("store contest %q: %w", key, err)
		}
		stats.Inserted++
	}
	return stats, nil
}
