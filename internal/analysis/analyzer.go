// Package analysis distills a crawled page set into a compact
// user-flow graph: noise classification, importance scoring, adaptive
// key-page selection and graph assembly. The package performs no I/O
// and every entry point is total over well-formed page records.
package analysis

import (
	"fmt"
	"time"

	"flowmapper/internal/domain"
)

// Options bundle the tunables of the whole pipeline.
type Options struct {
	Thresholds Thresholds
	Limits     SelectorLimits
}

func DefaultOptions() Options {
	return Options{
		Thresholds: DefaultThresholds(),
		Limits:     DefaultSelectorLimits(),
	}
}

// Analyzer runs the full pipeline over an immutable crawl snapshot.
// It holds no mutable state and is safe for concurrent use.
type Analyzer struct {
	classifier *NoiseClassifier
	scorer     *Scorer
	limits     SelectorLimits
}

func NewAnalyzer(opts Options) *Analyzer {
	return &Analyzer{
		classifier: NewNoiseClassifier(opts.Thresholds),
		scorer:     NewScorer(),
		limits:     opts.Limits,
	}
}

// Analyze turns an ordered crawl snapshot into a user flow. The
// returned report traces what each stage did; callers log or discard
// it. Analyze never fails: an empty snapshot yields an empty flow.
func (a *Analyzer) Analyze(pages *domain.PageSet, startURL string) (*domain.UserFlow, *domain.AnalysisReport) {
	report := &domain.AnalysisReport{StartedAt: time.Now()}

	stageStart := time.Now()
	reduced := a.classifier.Reduce(pages)
	report.Noise = reduced.Stats
	report.Stages = append(report.Stages, domain.StageReport{
		Stage:    "noise_reduction",
		Duration: time.Since(stageStart),
		Detail:   fmt.Sprintf("links %d -> %d, fallback=%t", reduced.Stats.TotalLinksBefore, reduced.Stats.TotalLinksAfter, reduced.Stats.FallbackTriggered),
	})

	stageStart = time.Now()
	incoming := IncomingLinkCounts(reduced)
	scored := a.scorer.ScoreAll(reduced, incoming)
	report.Stages = append(report.Stages, domain.StageReport{
		Stage:    "scoring",
		Duration: time.Since(stageStart),
		Detail:   fmt.Sprintf("%d pages scored", len(scored)),
	})

	stageStart = time.Now()
	keyPages := SelectKeyPages(pages, scored, a.limits)
	report.KeyPages = len(keyPages)
	report.Stages = append(report.Stages, domain.StageReport{
		Stage:    "key_page_selection",
		Duration: time.Since(stageStart),
		Detail:   fmt.Sprintf("%d of %d pages kept", len(keyPages), pages.Len()),
	})

	stageStart = time.Now()
	flow := BuildUserFlow(pages, reduced, keyPages, startURL)
	report.Stages = append(report.Stages, domain.StageReport{
		Stage:    "graph_assembly",
		Duration: time.Since(stageStart),
		Detail:   fmt.Sprintf("%d nodes, %d edges", len(flow.Nodes), len(flow.Edges)),
	})

	return flow, report
}
