package nativehost

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
)

type Handler interface {
	Handle(ctx context.Context, req model.RunRequest) model.RunResponse
}

// Host answers requests one at a time, in arrival order.
type Host struct {
	handler Handler
}

func NewHost(handler Handler) *Host {
	return &Host{handler: handler}
}

// Serve reads requests from r until EOF or ctx is cancelled and writes one
// response per request to w.
func (h *Host) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx = logging.ContextWithFields(ctx, map[string]any{"transport": "native"})
	log := logging.NewLogger(ctx)
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	for seq := 1; ; seq++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := ReadMessage(reader)
		if errors.Is(err, io.EOF) {
			log.Debugf("nativehost input closed")
			return nil
		}
		if err != nil {
			return utils.WrapIfNotNil(err)
		}

		resp := h.dispatch(logging.ContextWithFields(ctx, map[string]any{"request": seq}), payload)
		if err := h.write(writer, resp); err != nil {
			return utils.WrapIfNotNil(err)
		}
	}
}

func (h *Host) dispatch(ctx context.Context, payload []byte) model.RunResponse {
	req := model.RunRequest{}
	if err := json.Unmarshal(payload, &req); err != nil {
		logging.NewLogger(ctx).Warnf("nativehost malformed request: %v", err)
		return model.NewRunFailure(model.NewWorkflowError(
			model.ErrorKindInvalidRequest,
			fmt.Sprintf("malformed request: %v", err),
			err,
		))
	}
	return h.handler.Handle(ctx, req)
}

func (h *Host) write(w *bufio.Writer, resp model.RunResponse) error {
	bits, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if len(bits) > MaxOutboundMessageSize {
		bits, err = json.Marshal(model.NewRunFailure(model.NewWorkflowError(
			model.ErrorKindInvalidRequest,
			fmt.Sprintf("response of %d bytes exceeds the native messaging limit", len(bits)),
			nil,
		)))
		if err != nil {
			return err
		}
	}

	if err := WriteMessage(w, bits); err != nil {
		return err
	}
	return w.Flush()
}
