package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// stubClient is a canned LLMClient for analyzer tests.
type stubClient struct {
	provider string
	model    string
	content  string
	err      error
}

func (s *stubClient) Analyze(_ context.Context, _ AnalysisRequest) (*AnalysisResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &AnalysisResult{Content: s.content}, nil
}

func (s *stubClient) Provider() string { return s.provider }
func (s *stubClient) Model() string    { return s.model }

func TestDualAnalyzer_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("Should collect results from both providers in client order", func(t *testing.T) {
		analyzer, err := NewDualAnalyzer(zap.NewNop(),
			&stubClient{provider: domain.ProviderOpenAI, model: "gpt-4", content: "first insight"},
			&stubClient{provider: domain.ProviderAnthropic, model: "claude", content: "second insight"},
		)
		require.NoError(t, err)
		results, err := analyzer.Analyze(ctx, AnalysisRequest{UserPrompt: "why did it fail"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, domain.ProviderOpenAI, results[0].Provider)
		assert.Equal(t, "first insight", results[0].Content)
		assert.Equal(t, domain.ProviderAnthropic, results[1].Provider)
		assert.Equal(t, "second insight", results[1].Content)
	})
	t.Run("Should degrade when one provider fails", func(t *testing.T) {
		analyzer, err := NewDualAnalyzer(zap.NewNop(),
			&stubClient{provider: domain.ProviderOpenAI, err: fmt.Errorf("rate limited")},
			&stubClient{provider: domain.ProviderAnthropic, content: "still here"},
		)
		require.NoError(t, err)
		results, err := analyzer.Analyze(ctx, AnalysisRequest{UserPrompt: "q"})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.True(t, results[0].Failed())
		assert.Equal(t, "rate limited", results[0].Err)
		assert.Equal(t, "still here", results[1].Content)
	})
	t.Run("Should error when every provider fails", func(t *testing.T) {
		analyzer, err := NewDualAnalyzer(zap.NewNop(),
			&stubClient{provider: domain.ProviderOpenAI, err: fmt.Errorf("down")},
			&stubClient{provider: domain.ProviderAnthropic, err: fmt.Errorf("also down")},
		)
		require.NoError(t, err)
		results, err := analyzer.Analyze(ctx, AnalysisRequest{UserPrompt: "q"})
		require.Error(t, err)
		assert.Len(t, results, 2)
	})
	t.Run("Should require at least one client", func(t *testing.T) {
		_, err := NewDualAnalyzer(zap.NewNop())
		assert.Error(t, err)
	})
}
