package pipeline_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sitegrader/sitegrader/internal/pipeline"
)

func fastSpec(kind pipeline.StageKind, retries int) pipeline.StageSpec {
	return pipeline.StageSpec{
		Kind:       kind,
		Timeout:    200 * time.Millisecond,
		MaxRetries: retries,
		Backoff:    pipeline.BackoffPolicy{Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2.0},
		UnitCost:   0.01,
		External:   true,
	}
}

var _ = Describe("Runner", func() {
	var (
		runner *pipeline.Runner
		input  pipeline.Input
	)

	BeforeEach(func() {
		runner = pipeline.NewRunner(pipeline.NewQuotaGuard(0, 0, 0))
		input = pipeline.Input{Submission: pipeline.Submission{URL: "https://example.com"}}
	})

	It("returns the payload of a first-attempt success", func() {
		adapter := &fakeAdapter{kind: pipeline.StagePageSpeed, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			return map[string]any{"performance_score": 88.0}, nil
		}}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StagePageSpeed, 2), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageSucceeded))
		Expect(result.Attempts).To(Equal(1))
		Expect(result.CostIncurred).To(BeNumerically("~", 0.01, 1e-9))
		Expect(string(result.Payload)).To(ContainSubstring("performance_score"))
		Expect(result.Error).To(BeNil())
	})

	It("retries transient upstream failures and bills every attempt", func() {
		adapter := &fakeAdapter{kind: pipeline.StageSecurity, run: nil}
		adapter.run = func(ctx context.Context, in pipeline.Input) (any, error) {
			if adapter.calls.Load() < 3 {
				return nil, pipeline.NewUpstreamError(true, "gateway hiccup")
			}
			return map[string]any{"https_enabled": true}, nil
		}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StageSecurity, 2), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageSucceeded))
		Expect(result.Attempts).To(Equal(3))
		Expect(result.CostIncurred).To(BeNumerically("~", 0.03, 1e-9))
	})

	It("gives up once the retry budget is spent", func() {
		adapter := &fakeAdapter{kind: pipeline.StageSecurity, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			return nil, pipeline.NewUpstreamError(true, "still down")
		}}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StageSecurity, 2), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageFailed))
		Expect(result.Attempts).To(Equal(3))
		Expect(result.Error.Kind).To(Equal(pipeline.ErrorKindUpstream))
		Expect(result.CostIncurred).To(BeNumerically("~", 0.03, 1e-9))
	})

	It("does not retry a non-retryable failure", func() {
		adapter := &fakeAdapter{kind: pipeline.StageBusinessProfile, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			return nil, pipeline.NewInvalidInputError("no business name")
		}}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StageBusinessProfile, 2), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageFailed))
		Expect(result.Attempts).To(Equal(1))
		Expect(result.Error.Kind).To(Equal(pipeline.ErrorKindInvalidInput))
	})

	It("aborts an attempt that overruns the stage deadline", func() {
		adapter := &fakeAdapter{kind: pipeline.StageScreenshot, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
			return nil, ctx.Err()
		}}
		spec := fastSpec(pipeline.StageScreenshot, 0)
		spec.Timeout = 20 * time.Millisecond

		result := runner.Run(context.TODO(), spec, adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageTimedOut))
		Expect(result.Error.Kind).To(Equal(pipeline.ErrorKindTimeout))
		Expect(result.CostIncurred).To(BeNumerically("~", 0.01, 1e-9))
	})

	It("aborts on deadline even when the adapter ignores its context", func() {
		adapter := &fakeAdapter{kind: pipeline.StageScreenshot, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			time.Sleep(5 * time.Second)
			return map[string]any{}, nil
		}}
		spec := fastSpec(pipeline.StageScreenshot, 0)
		spec.Timeout = 20 * time.Millisecond

		start := time.Now()
		result := runner.Run(context.TODO(), spec, adapter, input)

		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
		Expect(result.Status).To(Equal(pipeline.StageTimedOut))
	})

	It("converts an adapter panic into an internal failure", func() {
		adapter := &fakeAdapter{kind: pipeline.StageVisualCritique, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			panic("nil dereference in critique model")
		}}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StageVisualCritique, 1), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageFailed))
		Expect(result.Error.Kind).To(Equal(pipeline.ErrorKindInternal))
		Expect(result.Error.Message).To(ContainSubstring("panicked"))
		Expect(result.Attempts).To(Equal(1))
	})

	It("fails fast without billing when the budget is exhausted", func() {
		runner = pipeline.NewRunner(pipeline.NewQuotaGuard(0.005, 0, 0))
		adapter := &fakeAdapter{kind: pipeline.StageDomainAuthority, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			return map[string]any{}, nil
		}}

		result := runner.Run(context.TODO(), fastSpec(pipeline.StageDomainAuthority, 2), adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageFailed))
		Expect(result.Error.Kind).To(Equal(pipeline.ErrorKindRateLimited))
		Expect(result.Attempts).To(Equal(0))
		Expect(result.CostIncurred).To(BeZero())
		Expect(adapter.calls.Load()).To(Equal(int32(0)))
	})

	It("skips the quota gate for internal stages", func() {
		runner = pipeline.NewRunner(pipeline.NewQuotaGuard(0.001, 0, 0))
		adapter := &fakeAdapter{kind: pipeline.StageScoreAggregation, run: func(ctx context.Context, in pipeline.Input) (any, error) {
			return map[string]any{"overall_score": 50.0}, nil
		}}
		spec := fastSpec(pipeline.StageScoreAggregation, 0)
		spec.External = false
		spec.UnitCost = 0

		result := runner.Run(context.TODO(), spec, adapter, input)

		Expect(result.Status).To(Equal(pipeline.StageSucceeded))
		Expect(result.CostIncurred).To(BeZero())
	})
})
