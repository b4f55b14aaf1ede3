// Package mcp exposes the transcript workflow as an MCP tool and provides a
// client that calls the same tool on a remote server.
package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/Nephrolytics-ai/glossify/pkg/logging"
	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ServerName = "glossify"

	ToolRunTranscriptWorkflow = "run_transcript_workflow"
	ArgVideoURL               = "video_url"
)

type Handler interface {
	Handle(ctx context.Context, req model.RunRequest) model.RunResponse
}

func NewServer(handler Handler, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(false))
	s.AddTool(runTool(), runToolHandler(handler))
	return s
}

func runTool() mcp.Tool {
	return mcp.NewTool(ToolRunTranscriptWorkflow,
		mcp.WithDescription("Fetch the transcript of a video, ask the model for a glossary of difficult terms, and return it sorted latest first."),
		mcp.WithString(ArgVideoURL,
			mcp.Required(),
			mcp.Description("URL of the video whose transcript should be processed"),
		),
	)
}

// runToolHandler always answers with the RunResponse JSON as text. Failures
// are tool errors, not protocol errors, so callers see the message.
func runToolHandler(handler Handler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx = logging.ContextWithFields(ctx, map[string]any{"transport": "mcp"})
		videoURL, err := request.RequireString(ArgVideoURL)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		resp := handler.Handle(ctx, model.RunRequest{
			Type:     model.MessageTypeRunTranscriptWorkflow,
			VideoURL: videoURL,
		})

		bits, err := json.Marshal(resp)
		if err != nil {
			return nil, utils.WrapIfNotNil(err)
		}

		result := mcp.NewToolResultText(string(bits))
		result.IsError = !resp.Success
		return result, nil
	}
}

// ServeStdio serves s on the given streams until ctx is done or in closes.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, errOut io.Writer) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(errOut, "mcp: ", log.LstdFlags))
	logging.NewLogger(ctx).Infof("mcp serving on stdio")
	return utils.WrapIfNotNil(stdio.Listen(ctx, in, out))
}

// NewHTTPHandler serves s over the streamable HTTP transport.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}
