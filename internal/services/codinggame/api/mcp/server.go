package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "codinggame"
	serverVersion = "0.1.0"
)

// NewServer builds an MCP server exposing the game tools.
func NewServer(runtime Runtime) (*mcp.Server, error) {
	if runtime == nil {
		return nil, errors.New("runtime is required")
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	mcp.AddTool(server, GameStateTool(), GameStateHandler(runtime))
	mcp.AddTool(server, ChatHistoryTool(), ChatHistoryHandler(runtime))
	mcp.AddTool(server, ChatRespondTool(), ChatRespondHandler(runtime))
	mcp.AddTool(server, ExternalEventTool(), ExternalEventHandler(runtime))
	mcp.AddTool(server, OpenAttachmentTool(), OpenAttachmentHandler(runtime))
	mcp.AddTool(server, DispatchEventTool(), DispatchEventHandler(runtime))
	mcp.AddTool(server, ResetGameTool(), ResetGameHandler(runtime))
	return server, nil
}

// Run serves the tools on transport until ctx ends or the peer disconnects.
func Run(ctx context.Context, runtime Runtime, transport mcp.Transport) error {
	server, err := NewServer(runtime)
	if err != nil {
		return err
	}
	if err := server.Run(ctx, transport); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
