package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/judgelink/apiserver/config"
)

// AtCoderClient fetches the AtCoder problem catalog published by
// kenkoooo.com. There is no per-contest endpoint, so the full catalog is
// fetched and filtered client-side by the caller.
type AtCoderClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAtCoderClient constructs a client from config.
func NewAtCoderClient(cfg config.UpstreamConfig) *AtCoderClient {
	timeout := defaultUpstreamTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &AtCoderClient{
		baseURL:    cfg.AtCoderBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type atcProblemRecord struct {
	ContestID    string `json:"contest_id"`
	ProblemIndex string `json:"problem_index"`
	Name         string `json:"name"`
	Title        string `json:"title"`
}

// TitleOrName returns the record title, preferring "name" over "title".
func (r atcProblemRecord) TitleOrName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Title
}

// Problems returns the full AtCoder problem catalog.
func (c *AtCoderClient) Problems(ctx context.Context) ([]Problem, error) {
	endpoint := c.baseURL + "/atcoder/resources/problems.json"

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
		return nil, fmt.Errorf("atcoder problems: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("atcoder problems: read response: %w", err)
	}
	return DecodeAtCoderProblems(body)
}

// DecodeAtCoderProblems decodes a problems.json payload. The bulk preload
// path reuses it so dump records and live records decode identically.
func DecodeAtCoderProblems(data []byte) ([]Problem, error) {
	var records []atcProblemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("atcoder problems: decode: %w", err)
	}

	problems := make([]Problem, 0, len(records))
	for _, r := range records {
		problems = append(problems, Problem{
			ContestID: r.ContestID,
			Index:     r.ProblemIndex,
			Name:      r.TitleOrName(),
		})
	}
	return problems, nil
}
