package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/Nephrolytics-ai/glossify/pkg/model"
	"github.com/Nephrolytics-ai/glossify/pkg/utils"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

type toolClient interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// RemoteRunner runs the workflow on a remote glossify MCP server. It
// satisfies the same Handler contract as the local orchestrator.
type RemoteRunner struct {
	serverURL       string
	serverAuthToken string

	mu     sync.RWMutex
	client toolClient
}

func NewRemoteRunner(ctx context.Context, serverURL string, authToken string) (*RemoteRunner, error) {
	r := &RemoteRunner{
		serverURL:       serverURL,
		serverAuthToken: authToken,
	}
	err := r.Connect(ctx)
	if err != nil {
		return nil, utils.WrapIfNotNil(err)
	}
	return r, nil
}

func (r *RemoteRunner) Connect(ctx context.Context) error {
	if strings.TrimSpace(r.serverURL) == "" {
		return utils.WrapIfNotNil(errors.New("serverURL is required"))
	}

	headers := map[string]string{}
	if r.serverAuthToken != "" {
		headers["Authorization"] = r.serverAuthToken
	}

	httpTransport, err := transport.NewStreamableHTTP(
		r.serverURL,
		transport.WithHTTPHeaders(headers),
	)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}

	c := client.NewClient(httpTransport)
	if err := c.Start(ctx); err != nil {
		return utils.WrapIfNotNil(err)
	}
	return r.attach(ctx, c)
}

func (r *RemoteRunner) attach(ctx context.Context, c toolClient) error {
	if err := initializeAndFindTool(ctx, c); err != nil {
		_ = c.Close()
		return utils.WrapIfNotNil(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		_ = r.client.Close()
	}
	r.client = c
	return nil
}

func (r *RemoteRunner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.client != nil {
		err = r.client.Close()
	}
	r.client = nil
	return utils.WrapIfNotNil(err)
}

func (r *RemoteRunner) Handle(ctx context.Context, req model.RunRequest) model.RunResponse {
	r.mu.RLock()
	c := r.client
	authToken := r.serverAuthToken
	r.mu.RUnlock()

	if c == nil {
		return model.NewRunFailure(errors.New("mcp client is not connected"))
	}

	request := mcp.CallToolRequest{
		Header: http.Header{},
		Params: mcp.CallToolParams{
			Name:      ToolRunTranscriptWorkflow,
			Arguments: map[string]any{ArgVideoURL: req.VideoURL},
		},
	}
	if authToken != "" {
		request.Header.Set("Authorization", authToken)
	}

	result, err := c.CallTool(ctx, request)
	if err != nil {
		return model.NewRunFailure(utils.WrapIfNotNil(err))
	}
	return decodeToolResult(result)
}

func initializeAndFindTool(ctx context.Context, c toolClient) error {
	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    "glossify remote runner",
		Version: "1.0.0",
	}
	initRequest.Params.Capabilities = mcp.ClientCapabilities{}

	serverInfo, err := c.Initialize(ctx, initRequest)
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	if serverInfo == nil || serverInfo.Capabilities.Tools == nil {
		return utils.WrapIfNotNil(errors.New("mcp server does not offer tools"))
	}

	toolsResult, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return utils.WrapIfNotNil(err)
	}
	if toolsResult != nil {
		for _, tool := range toolsResult.Tools {
			if tool.Name == ToolRunTranscriptWorkflow {
				return nil
			}
		}
	}
	return utils.WrapIfNotNil(fmt.Errorf("mcp server has no %q tool", ToolRunTranscriptWorkflow))
}

// decodeToolResult reads the RunResponse JSON from the first text block. A
// tool error without JSON keeps its text as the failure message.
func decodeToolResult(result *mcp.CallToolResult) model.RunResponse {
	if result == nil {
		return model.NewRunFailure(errors.New("nil call tool result"))
	}

	text, ok := firstText(result.Content)
	if !ok {
		return model.NewRunFailure(errors.New("mcp tool returned no text content"))
	}

	resp := model.RunResponse{}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		if result.IsError {
			return model.NewRunFailure(errors.New(text))
		}
		return model.NewRunFailure(fmt.Errorf("mcp tool returned unreadable response: %w", err))
	}
	if resp.Success && resp.Glossary == nil {
		resp.Glossary = model.GlossarySet{}
	}
	return resp
}

func firstText(content []mcp.Content) (string, bool) {
	for _, item := range content {
		switch c := item.(type) {
		case mcp.TextContent:
			return c.Text, true
		case *mcp.TextContent:
			return c.Text, true
		}
	}
	return "", false
}
