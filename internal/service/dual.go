package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// AnalyzerService forwards a prompt to every configured AI backend and
// collects their raw responses. Merging is left to the caller.

type AnalyzerService interface {
	Analyze(ctx context.Context, req AnalysisRequest) ([]domain.ProviderResult, error)
}

// dualAnalyzer fans a request out to two provider clients. Calls are
// never retried: a provider failure is recorded in its result and the
// other provider's response survives.
type dualAnalyzer struct {
	clients []LLMClient
	log     *zap.Logger
}

// NewDualAnalyzer creates an AnalyzerService over the given clients.
func NewDualAnalyzer(log *zap.Logger, clients ...LLMClient) (AnalyzerService, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one LLM client is required")
	}
	return &dualAnalyzer{clients: clients, log: log}, nil
}

// Analyze awaits one completion per provider. The returned slice keeps
// the client order. An error is returned only when every provider fails.
func (a *dualAnalyzer) Analyze(ctx context.Context, req AnalysisRequest) ([]domain.ProviderResult, error) {
	results := make([]domain.ProviderResult, len(a.clients))
	var wg sync.WaitGroup
	for i, client := range a.clients {
		wg.Add(1)
		go func(i int, client LLMClient) {
			defer wg.Done()
			result := domain.ProviderResult{
				Provider: client.Provider(),
				Model:    client.Model(),
			}
			resp, err := client.Analyze(ctx, req)
			if err != nil {
				result.Err = err.Error()
				a.log.Warn("provider analysis failed",
					zap.String("provider", client.Provider()),
					zap.Error(err))
			} else {
				result.Content = resp.Content
			}
			results[i] = result
		}(i, client)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Failed() {
			failed++
		}
	}
	if failed == len(results) {
		return results, fmt.Errorf("all %d providers failed", len(results))
	}
	return results, nil
}
