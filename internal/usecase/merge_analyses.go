package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sdkassist/sdkassist/internal/domain"
)

// MergeAnalysesUseCase merges the textual responses of multiple AI
// providers into a single deduplicated insight list.

type MergeAnalysesUseCase struct{}

var (
	// bulletPrefix strips list markers and numbering from a line
	bulletPrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	// spaceRun collapses internal whitespace for comparison
	spaceRun = regexp.MustCompile(`\s+`)
)

// Execute turns the provider results into a merged Analysis. Insight
// order is first-seen: all of the first provider's lines, then any
// lines from later providers not already present. Comparison ignores
// case, list markers and trailing punctuation.
func (uc *MergeAnalysesUseCase) Execute(results []domain.ProviderResult) (*domain.Analysis, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("no provider results to merge")
	}

	analysis := &domain.Analysis{
		Providers: results,
	}

	seen := make(map[string]bool)
	failed := 0
	for _, result := range results {
		if result.Failed() {
			failed++
			continue
		}
		for _, line := range strings.Split(result.Content, "\n") {
			insight := normalizeInsight(line)
			if insight == "" {
				continue
			}
			key := insightKey(insight)
			if seen[key] {
				continue
			}
			seen[key] = true
			analysis.Insights = append(analysis.Insights, insight)
		}
	}

	if failed == len(results) {
		return nil, fmt.Errorf("all provider analyses failed")
	}
	analysis.Degraded = failed > 0
	return analysis, nil
}

// normalizeInsight cleans a raw response line into a presentable
// insight. Markdown headings, list markers and stray fencing are
// stripped; fragments too short to be meaningful are dropped.
func normalizeInsight(line string) string {
	trimmed := strings.TrimSpace(line)
	trimmed = strings.TrimLeft(trimmed, "#")
	trimmed = bulletPrefix.ReplaceAllString(trimmed, "")
	trimmed = strings.Trim(trimmed, "`")
	trimmed = spaceRun.ReplaceAllString(strings.TrimSpace(trimmed), " ")
	if len(trimmed) < 4 {
		return ""
	}
	return trimmed
}

// insightKey produces the comparison key used for deduplication.
func insightKey(insight string) string {
	key := strings.ToLower(insight)
	key = strings.TrimRight(key, ".!:;")
	return key
}
