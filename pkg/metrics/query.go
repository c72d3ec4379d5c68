package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// Usage is aggregated LLM and title usage scraped into a Prometheus server.
type Usage struct {
	Model            string           `json:"model,omitempty"`
	PromptTokens     int64            `json:"prompt_tokens"`
	CompletionTokens int64            `json:"completion_tokens"`
	TotalTokens      int64            `json:"total_tokens"`
	Requests         int64            `json:"requests"`
	Titles           map[string]int64 `json:"titles,omitempty"`
}

// QueryService reads narrator metrics back from Prometheus.
type QueryService struct {
	queryAPI v1.API
}

// NewQueryService creates a query service for the server at prometheusURL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}
	return &QueryService{queryAPI: v1.NewAPI(client)}, nil
}

// GetUsage returns totals across all models, including per-status title counts.
func (q *QueryService) GetUsage(ctx context.Context) (*Usage, error) {
	usage := &Usage{Titles: map[string]int64{}}

	var err error
	if usage.PromptTokens, err = q.scalar(ctx, `sum(`+namespace+`_llm_tokens_total{type="prompt"})`); err != nil {
		return nil, fmt.Errorf("failed to query prompt tokens: %w", err)
	}
	if usage.CompletionTokens, err = q.scalar(ctx, `sum(`+namespace+`_llm_tokens_total{type="completion"})`); err != nil {
		return nil, fmt.Errorf("failed to query completion tokens: %w", err)
	}
	if usage.Requests, err = q.scalar(ctx, `sum(`+namespace+`_llm_requests_total)`); err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	vector, err := q.vector(ctx, `sum by (status) (`+namespace+`_titles_total)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query titles: %w", err)
	}
	for _, sample := range vector {
		usage.Titles[string(sample.Metric["status"])] = int64(sample.Value)
	}
	return usage, nil
}

// GetUsageByModel returns token and request totals broken down by model.
func (q *QueryService) GetUsageByModel(ctx context.Context) (map[string]*Usage, error) {
	result := make(map[string]*Usage)
	get := func(m model.LabelValue) *Usage {
		u, ok := result[string(m)]
		if !ok {
			u = &Usage{Model: string(m)}
			result[string(m)] = u
		}
		return u
	}

	tokens, err := q.vector(ctx, `sum by (model, type) (`+namespace+`_llm_tokens_total)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens by model: %w", err)
	}
	for _, sample := range tokens {
		u := get(sample.Metric["model"])
		switch sample.Metric["type"] {
		case "prompt":
			u.PromptTokens = int64(sample.Value)
		case "completion":
			u.CompletionTokens = int64(sample.Value)
		}
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}

	requests, err := q.vector(ctx, `sum by (model) (`+namespace+`_llm_requests_total)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests by model: %w", err)
	}
	for _, sample := range requests {
		get(sample.Metric["model"]).Requests = int64(sample.Value)
	}
	return result, nil
}

func (q *QueryService) vector(ctx context.Context, query string) (model.Vector, error) {
	value, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add context
	}
	vector, ok := value.(model.Vector)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s", value.Type())
	}
	return vector, nil
}

func (q *QueryService) scalar(ctx context.Context, query string) (int64, error) {
	vector, err := q.vector(ctx, query)
	if err != nil {
		return 0, err
	}
	if len(vector) == 0 {
		return 0, nil
	}
	return int64(vector[0].Value), nil
}
