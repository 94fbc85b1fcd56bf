package pipeline_test

import (
	"context"
	"encoding/json"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

type fakeAdapter struct {
	kind  pipeline.StageKind
	calls atomic.Int32
	run   func(ctx context.Context, in pipeline.Input) (any, error)
}

func (f *fakeAdapter) Kind() pipeline.StageKind { return f.kind }

func (f *fakeAdapter) Run(ctx context.Context, in pipeline.Input) (any, error) {
	f.calls.Add(1)
	return f.run(ctx, in)
}

func okPayload(kind pipeline.StageKind) map[string]any {
	payload := map[string]any{"stage": string(kind)}
	if kind == pipeline.StageScoreAggregation {
		payload["overall_score"] = 72.5
	}
	return payload
}

// newAdapters builds one fake per stage. Stages listed in failing return a
// non-retryable error, everything else succeeds with a small payload.
func newAdapters(specs []pipeline.StageSpec, failing ...pipeline.StageKind) map[pipeline.StageKind]*fakeAdapter {
	failed := make(map[pipeline.StageKind]bool, len(failing))
	for _, kind := range failing {
		failed[kind] = true
	}

	adapters := make(map[pipeline.StageKind]*fakeAdapter, len(specs))
	for _, spec := range specs {
		kind := spec.Kind
		adapters[kind] = &fakeAdapter{
			kind: kind,
			run: func(ctx context.Context, in pipeline.Input) (any, error) {
				if failed[kind] {
					return nil, pipeline.NewInvalidInputError("stage %s rejected input", kind)
				}
				return okPayload(kind), nil
			},
		}
	}
	return adapters
}

func newOrchestrator(adapters map[pipeline.StageKind]*fakeAdapter) *pipeline.Orchestrator {
	list := make([]pipeline.Adapter, 0, len(adapters))
	for _, a := range adapters {
		list = append(list, a)
	}
	orch, err := pipeline.NewOrchestrator(pipeline.DefaultSpecs(), list, pipeline.NewRunner(pipeline.NewQuotaGuard(0, 0, 0)))
	Expect(err).To(BeNil())
	return orch
}

var _ = Describe("Orchestrator", func() {
	var submission pipeline.Submission

	BeforeEach(func() {
		submission = pipeline.Submission{URL: "https://example.com", BusinessName: "Example Inc"}
	})

	Context("a fully successful run", func() {
		It("finalizes one result per stage and completes", func() {
			adapters := newAdapters(pipeline.DefaultSpecs())
			orch := newOrchestrator(adapters)

			run := orch.NewRun(submission)
			exec := orch.Execute(context.TODO(), run)

			Expect(exec.Results).To(HaveLen(8))
			for _, res := range exec.Results {
				Expect(res.Status).To(Equal(pipeline.StageSucceeded), string(res.Stage))
				Expect(res.Attempts).To(Equal(1))
			}
			Expect(exec.OverallStatus).To(Equal(pipeline.RunCompleted))
			Expect(exec.FinishedAt).ToNot(BeNil())
		})

		It("extracts the overall score from the aggregation payload", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs()))

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.OverallScore).ToNot(BeNil())
			Expect(*exec.OverallScore).To(Equal(72.5))
		})

		It("bills the unit cost of every external stage", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs()))

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.TotalCost).To(BeNumerically("~", 0.08, 1e-9))
		})

		It("hands earlier payloads to later stages", func() {
			adapters := newAdapters(pipeline.DefaultSpecs())
			var seen map[pipeline.StageKind]json.RawMessage
			adapters[pipeline.StageScoreAggregation].run = func(ctx context.Context, in pipeline.Input) (any, error) {
				seen = in.Prior
				return okPayload(pipeline.StageScoreAggregation), nil
			}
			orch := newOrchestrator(adapters)

			orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(seen).To(HaveKey(pipeline.StagePageSpeed))
			Expect(seen).To(HaveKey(pipeline.StageVisualCritique))
			Expect(seen).ToNot(HaveKey(pipeline.StageScoreAggregation))
		})
	})

	Context("partial failures", func() {
		It("reports partially_completed when the success ratio is between the thresholds", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs(),
				pipeline.StageSecurity, pipeline.StageBusinessProfile, pipeline.StageDomainAuthority))

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.OverallStatus).To(Equal(pipeline.RunPartiallyCompleted))
			Expect(exec.Result(pipeline.StageSecurity).Status).To(Equal(pipeline.StageFailed))
			Expect(exec.Result(pipeline.StageSecurity).Error.Kind).To(Equal(pipeline.ErrorKindInvalidInput))
		})

		It("reports failed when fewer than half of the stages succeed", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs(),
				pipeline.StagePageSpeed, pipeline.StageSecurity, pipeline.StageBusinessProfile, pipeline.StageScreenshot))

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.OverallStatus).To(Equal(pipeline.RunFailed))
		})

		It("still bills attempts of failed stages", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs(), pipeline.StageBusinessProfile))

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			res := exec.Result(pipeline.StageBusinessProfile)
			Expect(res.Status).To(Equal(pipeline.StageFailed))
			Expect(res.CostIncurred).To(BeNumerically("~", 0.017, 1e-9))
			Expect(exec.TotalCost).To(BeNumerically("~", 0.08, 1e-9))
		})
	})

	Context("dependencies", func() {
		It("skips a stage whose dependency payload is missing without invoking it", func() {
			adapters := newAdapters(pipeline.DefaultSpecs(), pipeline.StageScreenshot)
			orch := newOrchestrator(adapters)

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.Result(pipeline.StageVisualCritique).Status).To(Equal(pipeline.StageSkipped))
			Expect(adapters[pipeline.StageVisualCritique].calls.Load()).To(Equal(int32(0)))
		})

		It("skips content generation when score aggregation fails", func() {
			adapters := newAdapters(pipeline.DefaultSpecs(), pipeline.StageScoreAggregation)
			orch := newOrchestrator(adapters)

			exec := orch.Execute(context.TODO(), orch.NewRun(submission))

			Expect(exec.Result(pipeline.StageContentGeneration).Status).To(Equal(pipeline.StageSkipped))
			Expect(adapters[pipeline.StageContentGeneration].calls.Load()).To(Equal(int32(0)))
			Expect(exec.OverallScore).To(BeNil())
		})
	})

	Context("cancellation", func() {
		It("skips every remaining stage once the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.TODO())
			adapters := newAdapters(pipeline.DefaultSpecs())
			adapters[pipeline.StageSecurity].run = func(ctx context.Context, in pipeline.Input) (any, error) {
				cancel()
				return okPayload(pipeline.StageSecurity), nil
			}
			orch := newOrchestrator(adapters)

			exec := orch.Execute(ctx, orch.NewRun(submission))

			Expect(exec.Result(pipeline.StagePageSpeed).Status).To(Equal(pipeline.StageSucceeded))
			// The canceling stage itself races its own cancellation; it is
			// resolved either way, never left pending.
			Expect(exec.Result(pipeline.StageSecurity).Status).To(BeElementOf(pipeline.StageSucceeded, pipeline.StageFailed))
			for _, kind := range []pipeline.StageKind{
				pipeline.StageBusinessProfile,
				pipeline.StageScreenshot,
				pipeline.StageDomainAuthority,
				pipeline.StageVisualCritique,
				pipeline.StageScoreAggregation,
				pipeline.StageContentGeneration,
			} {
				Expect(exec.Result(kind).Status).To(Equal(pipeline.StageSkipped), string(kind))
				Expect(adapters[kind].calls.Load()).To(Equal(int32(0)), string(kind))
			}
			Expect(exec.OverallStatus).To(Equal(pipeline.RunFailed))
		})
	})

	Context("progress", func() {
		It("reports a complete snapshot once the run finished", func() {
			orch := newOrchestrator(newAdapters(pipeline.DefaultSpecs()))
			run := orch.NewRun(submission)

			Expect(run.Progress().Resolved).To(Equal(0))
			orch.Execute(context.TODO(), run)

			progress := run.Progress()
			Expect(progress.Resolved).To(Equal(8))
			Expect(progress.Total).To(Equal(8))
			Expect(progress.Fraction).To(Equal(1.0))
			Expect(progress.AssessmentID).To(Equal(run.ID()))

			required := make(map[pipeline.StageKind]bool)
			for _, stage := range progress.Stages {
				required[stage.Stage] = stage.Required
			}
			Expect(required[pipeline.StagePageSpeed]).To(BeTrue())
			Expect(required[pipeline.StageScreenshot]).To(BeFalse())
		})
	})
})

var _ = DescribeTable("ComputeOverallStatus",
	func(succeeded, total int, expected pipeline.RunStatus) {
		results := make([]pipeline.ComponentResult, total)
		for i := range results {
			results[i].Status = pipeline.StageFailed
			if i < succeeded {
				results[i].Status = pipeline.StageSucceeded
			}
		}
		Expect(pipeline.ComputeOverallStatus(results)).To(Equal(expected))
	},
	Entry("all succeeded", 8, 8, pipeline.RunCompleted),
	Entry("ratio at the completed threshold", 4, 5, pipeline.RunCompleted),
	Entry("ratio between the thresholds", 5, 8, pipeline.RunPartiallyCompleted),
	Entry("ratio at the partial threshold", 4, 8, pipeline.RunPartiallyCompleted),
	Entry("ratio below the partial threshold", 3, 8, pipeline.RunFailed),
	Entry("nothing succeeded", 0, 8, pipeline.RunFailed),
	Entry("no results", 0, 0, pipeline.RunFailed),
)
