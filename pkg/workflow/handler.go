package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
)

// Handle answers one RUN_TRANSCRIPT_WORKFLOW message. It never panics; every
// failure becomes {success:false}.
func (o *Orchestrator) Handle(ctx context.Context, req model.RunRequest) (resp model.RunResponse) {
	log := logging.NewLogger(ctx)
	defer func() {
		if recovered := recover(); recovered != nil {
			utils.LogStack(log, fmt.Sprintf("workflow panic: %v", recovered))
			resp = model.NewRunFailure(model.NewWorkflowError(
				model.ErrorKindInvalidRequest,
				fmt.Sprintf("internal error: %v", recovered),
				nil,
			))
		}
	}()

	if req.Type != model.MessageTypeRunTranscriptWorkflow {
		return model.NewRunFailure(model.NewWorkflowError(
			model.ErrorKindInvalidRequest,
			fmt.Sprintf("unsupported message type %q", req.Type),
			nil,
		))
	}
	if strings.TrimSpace(req.VideoURL) == "" {
		return model.NewRunFailure(model.NewWorkflowError(model.ErrorKindInvalidRequest, "videoUrl is required", nil))
	}

	glossary, err := o.Run(ctx, strings.TrimSpace(req.VideoURL))
	if err != nil {
		return model.NewRunFailure(err)
	}
	return model.NewRunSuccess(glossary)
}
