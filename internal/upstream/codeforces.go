package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/judgelink/apiserver/config"
)

const defaultUpstreamTimeout = 10 * time.Second

// CodeforcesClient fetches contest problem sets from the Codeforces API.
type CodeforcesClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCodeforcesClient constructs a client from config.
func NewCodeforcesClient(cfg config.UpstreamConfig) *CodeforcesClient {
	timeout := defaultUpstreamTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &CodeforcesClient{
		baseURL:    cfg.CodeforcesBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type cfStandingsResponse struct {
	Status string `json:"status"`
	Result struct {
		Problems []struct {
			Index string `json:"index"`
			Name  string `json:"name"`
		} `json:"problems"`
	} `json:"result"`
}

// ContestProblems returns the problems of one contest. The standings endpoint
// is queried with a single-row window; only the problems list is consumed.
func (c *CodeforcesClient) ContestProblems(ctx context.Context, contestID string) ([]Problem, error) {
	endpoint := fmt.Sprintf("%s/api/contest.standings?contestId=%s&from=1&count=1",
		c.baseURL, url.QueryEscape(contestID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codeforces standings: unexpected status %d", resp.StatusCode)
	}

	var payload cfStandingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("codeforces standings: decode response: %w", err)
	}
	if payload.Status != "OK" {
		return nil, fmt.Errorf("codeforces standings: status %q", payload.Status)
	}

	problems := make([]Problem, 0, len(payload.Result.Problems))
	for _, p := range payload.Result.Problems {
		problems = append(problems, Problem{Index: p.Index, Name: p.Name})
	}
	return problems, nil
}
