package workflow

import (
	"context"
	"fmt"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	DefaultBatchConcurrency   = 2
	DefaultBatchRatePerMinute = 30
)

type Handler interface {
	Handle(ctx context.Context, req model.RunRequest) model.RunResponse
}

type BatchOptions struct {
	Concurrency   int
	RatePerMinute int
}

// BatchResult pairs a video URL with the response of its run.
type BatchResult struct {
	VideoURL string
	Response model.RunResponse
}

// RunBatch runs one workflow per URL with bounded parallelism and a start
// rate limit. Runs are independent: one failure does not stop the others.
// Results keep the order of videoURLs.
func RunBatch(ctx context.Context, handler Handler, videoURLs []string, opts BatchOptions) []BatchResult {
	log := logging.NewLogger(ctx)
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultBatchConcurrency
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = DefaultBatchRatePerMinute
	}
	log.Infof("workflow batch start videos=%d concurrency=%d rate_per_minute=%d", len(videoURLs), opts.Concurrency, opts.RatePerMinute)

	limiter := rate.NewLimiter(rate.Limit(float64(opts.RatePerMinute)/60.0), 1)
	results := make([]BatchResult, len(videoURLs))

	var g errgroup.Group
	g.SetLimit(opts.Concurrency)

	for i, videoURL := range videoURLs {
		results[i].VideoURL = videoURL
		g.Go(func() error {
			runCtx := logging.ContextWithFields(ctx, map[string]any{"batch_index": i})
			if err := limiter.Wait(runCtx); err != nil {
				results[i].Response = model.NewRunFailure(model.NewWorkflowError(
					model.ErrorKindInvalidRequest,
					fmt.Sprintf("run not started: %v", err),
					err,
				))
				return nil
			}
			results[i].Response = handler.Handle(runCtx, model.RunRequest{
				Type:     model.MessageTypeRunTranscriptWorkflow,
				VideoURL: videoURL,
			})
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, result := range results {
		if !result.Response.Success {
			failed++
		}
	}
	log.Infof("workflow batch finished videos=%d failed=%d", len(videoURLs), failed)
	return results
}
