package orchestrator

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/stickertrendz/pipeline/internal/model"
	"github.com/stickertrendz/pipeline/internal/store"
	"github.com/stickertrendz/pipeline/pkg/dedup"
	"github.com/stickertrendz/pipeline/pkg/external"
	"github.com/stickertrendz/pipeline/pkg/ledger"
	"github.com/stickertrendz/pipeline/pkg/resilience"
	"github.com/stickertrendz/pipeline/pkg/spend"
)

const WorkflowTrendMonitor = "trend_monitor"

// scoringBatchLimit is the most candidates scored in a single batched LLM
// call per cycle.
const scoringBatchLimit = 30

// NewTrendMonitorAdmission gates trend_monitor on the monthly AI budget: no
// point discovering trends the LLM budget can't afford to score.
func NewTrendMonitorAdmission(sg *spend.Governor) AdmissionCheck {
	return func(ctx context.Context) (Admission, error) {
		status, err := sg.CheckBudget(ctx)
		if err != nil {
			return Admission{}, err
		}
		if !status.CanProceed {
			return Admission{Allowed: false, Reason: "budget"}, nil
		}
		return Admission{Allowed: true}, nil
	}
}

// NewTrendMonitorBody builds the trend_monitor workflow body: fetch
// candidates from every configured source, deduplicate, reconcile against
// the store, score the top batch via the LLM, and insert the result with
// status discovered (top maxDiscovered by overall score) or queued (the
// remainder). Writes new_trends=<bool> to newTrendsOutputFile if set.
func NewTrendMonitorBody(
	stores *store.Stores,
	sources []external.TrendSource,
	llm external.LLM,
	reconciler *dedup.Reconciler,
	errors *ledger.ErrorLedger,
	breakers *resilience.BreakerRegistry,
	maxDiscovered int,
	newTrendsOutputFile string,
) Body {
	if maxDiscovered <= 0 {
		maxDiscovered = 5
	}

	return func(ctx context.Context, runID uuid.UUID) (ledger.Counts, map[string]any, error) {
		var counts ledger.Counts

		var candidates []dedup.Candidate
		sourcesOK := 0
		for _, src := range sources {
			raw, err := resilience.Do(ctx, resilience.DefaultPolicy(src.Name()), breakers, func(ctx context.Context) (any, *resilience.Failure) {
				out, err := src.Fetch(ctx)
				if err != nil {
					return nil, resilience.Retry(resilience.KindAPIError, err)
				}
				return out, nil
			})
			if err != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowTrendMonitor, Step: "fetch_candidates",
					Kind: resilience.Kind(err.Kind), Message: err.Error(), Service: src.Name(),
					PipelineRunID: &runID,
				})
				continue
			}
			sourcesOK++
			for _, c := range raw.([]external.RawCandidate) {
				candidates = append(candidates, dedup.Candidate{
					Topic: c.Topic, Source: src.Name(), Keywords: c.Keywords,
					ScoreHint: c.ScoreHint, SourceData: c.SourceData,
				})
			}
		}

		if len(sources) > 0 && sourcesOK == 0 {
			return counts, nil, fmt.Errorf("all %d trend sources failed", len(sources))
		}

		canonical := dedup.Deduplicate(candidates)
		trulyNew, err := reconciler.ReconcileWithStore(ctx, canonical)
		if err != nil {
			return counts, nil, fmt.Errorf("reconciling trends with store: %w", err)
		}

		if len(trulyNew) > scoringBatchLimit {
			trulyNew = trulyNew[:scoringBatchLimit]
		}

		newTrends := false
		if len(trulyNew) > 0 && llm != nil {
			topics := make([]string, len(trulyNew))
			for i, c := range trulyNew {
				topics[i] = c.Topic
			}

			scoreResult, failure := resilience.Do(ctx, resilience.DefaultPolicy("llm"), breakers, func(ctx context.Context) (any, *resilience.Failure) {
				scores, err := llm.BatchScore(ctx, topics)
				if err != nil {
					return nil, resilience.Retry(resilience.KindAPIError, err)
				}
				return scores, nil
			})
			if failure != nil {
				counts.ErrorsCount++
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowTrendMonitor, Step: "score_candidates",
					Kind: resilience.Kind(failure.Kind), Message: failure.Error(), Service: "llm",
					PipelineRunID: &runID,
				})
			} else {
				scores := scoreResult.([]external.ScoredTopic)
				byIndex := make(map[int]external.ScoredTopic, len(scores))
				for _, sc := range scores {
					byIndex[sc.Index] = sc
				}

				ranked := make([]int, len(trulyNew))
				for i := range ranked {
					ranked[i] = i
				}
				sort.Slice(ranked, func(a, b int) bool {
					return byIndex[ranked[a]].Overall > byIndex[ranked[b]].Overall
				})

				for rank, idx := range ranked {
					c := trulyNew[idx]
					sc := byIndex[idx]

					status := model.TrendQueued
					if rank < maxDiscovered {
						status = model.TrendDiscovered
					}

					t, err := stores.Trends.Create(ctx, model.Trend{
						Topic: c.Topic, NormalizedTopic: c.NormalizedTopic,
						Sources: c.Sources, Keywords: c.Keywords,
						VelocityScore: sc.Velocity, CommercialScore: sc.Commercial,
						SafetyScore: sc.Safety, UniquenessScore: sc.Uniqueness,
						OverallScore: sc.Overall, Status: status,
					})
					if err != nil {
						counts.ErrorsCount++
						errors.LogError(ctx, ledger.LogErrorParams{
							Workflow: WorkflowTrendMonitor, Step: "insert_trend",
							Kind: resilience.KindStorageError, Message: err.Error(), Service: "store",
							PipelineRunID: &runID, Context: map[string]any{"topic": c.Topic},
						})
						continue
					}
					counts.TrendsFound++
					if t.Status == model.TrendDiscovered {
						newTrends = true
					}
				}
			}
		}

		if newTrendsOutputFile != "" {
			if err := os.WriteFile(newTrendsOutputFile, []byte("new_trends="+strconv.FormatBool(newTrends)), 0o644); err != nil {
				errors.LogError(ctx, ledger.LogErrorParams{
					Workflow: WorkflowTrendMonitor, Step: "write_output_file",
					Kind: resilience.KindStorageError, Message: err.Error(), Service: "filesystem",
					PipelineRunID: &runID,
				})
			}
		}

		return counts, map[string]any{"new_trends": newTrends, "sources_ok": sourcesOK}, nil
	}
}
