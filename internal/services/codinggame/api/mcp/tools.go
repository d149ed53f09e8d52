package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/codinggame/internal/platform/errors"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/engine"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/eventlog"
	"github.com/louisbranch/codinggame/internal/services/codinggame/domain/mission"
)

// callTimeout bounds how long a tool waits for the run loop.
const callTimeout = 10 * time.Second

// Runtime is the game runtime the tools drive.
type Runtime interface {
	DispatchEventByName(ctx context.Context, name string) error
	FetchChatHistory(ctx context.Context, actor string) ([]eventlog.ChatRecord, error)
	ReceiveChatResponse(ctx context.Context, id, text, responseKey string) error
	ReceiveExternalEvent(ctx context.Context, id string) error
	ReceiveOpenAttachment(ctx context.Context, id string) error
	ResetGame(ctx context.Context) error
	State(ctx context.Context) (engine.Snapshot, error)
}

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// AckResult is returned by tools that only change state.
type AckResult struct {
	OK bool `json:"ok" jsonschema:"true when the request was accepted"`
}

// GameStateResult is the current game snapshot.
type GameStateResult struct {
	Mission      *mission.State `json:"mission,omitempty" jsonschema:"current mission, absent before the first mission starts"`
	ListeningFor []string       `json:"listening_for" jsonschema:"external events the game is waiting for"`
}

// ChatHistoryInput selects the actor whose history to read.
type ChatHistoryInput struct {
	Actor string `json:"actor" jsonschema:"chat actor name"`
}

// ChatRecordResult is one chat record.
type ChatRecordResult struct {
	Name       string         `json:"name" jsonschema:"event name"`
	Type       string         `json:"type" jsonschema:"event type"`
	Actor      string         `json:"actor" jsonschema:"chat actor"`
	Message    string         `json:"message,omitempty" jsonschema:"message text"`
	Attachment map[string]any `json:"attachment,omitempty" jsonschema:"attachment object, if any"`
	Input      any            `json:"input,omitempty" jsonschema:"input prompt, for input-user events"`
	Styles     []string       `json:"styles,omitempty" jsonschema:"rendering styles"`
	Timestamp  string         `json:"timestamp" jsonschema:"RFC3339 timestamp"`
}

// ChatHistoryResult lists an actor's chat records in log order.
type ChatHistoryResult struct {
	Records []ChatRecordResult `json:"records" jsonschema:"chat records, oldest first"`
}

// ChatRespondInput answers a chat or input event.
type ChatRespondInput struct {
	Event    string `json:"event" jsonschema:"name of the chat event being answered"`
	Text     string `json:"text" jsonschema:"text typed by the user"`
	Response string `json:"response" jsonschema:"response key chosen by the user"`
}

// EventInput names a timeline event or external event.
type EventInput struct {
	Name string `json:"name" jsonschema:"event name"`
}

// GameStateTool defines the game_state tool.
func GameStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "game_state",
		Description: "Returns the current mission, its score and the external events the game listens for.",
	}
}

// GameStateHandler reads the published snapshot.
func GameStateHandler(runtime Runtime) mcp.ToolHandlerFor[EmptyInput, GameStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, GameStateResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		snapshot, err := runtime.State(runCtx)
		if err != nil {
			return nil, GameStateResult{}, toolError("read game state", err)
		}
		listening := snapshot.ListeningFor
		if listening == nil {
			listening = []string{}
		}
		return nil, GameStateResult{Mission: snapshot.Mission, ListeningFor: listening}, nil
	}
}

// ChatHistoryTool defines the chat_history tool.
func ChatHistoryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "chat_history",
		Description: "Returns every chat message exchanged with an actor, oldest first.",
	}
}

// ChatHistoryHandler reads the chat history of an actor.
func ChatHistoryHandler(runtime Runtime) mcp.ToolHandlerFor[ChatHistoryInput, ChatHistoryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChatHistoryInput) (*mcp.CallToolResult, ChatHistoryResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		history, err := runtime.FetchChatHistory(runCtx, input.Actor)
		if err != nil {
			return nil, ChatHistoryResult{}, toolError("fetch chat history", err)
		}
		result := ChatHistoryResult{Records: make([]ChatRecordResult, 0, len(history))}
		for _, record := range history {
			result.Records = append(result.Records, chatRecordResult(record))
		}
		return nil, result, nil
	}
}

func chatRecordResult(record eventlog.ChatRecord) ChatRecordResult {
	out := ChatRecordResult{
		Name:       record.Name,
		Type:       string(record.Type),
		Actor:      record.Actor,
		Message:    record.Message,
		Attachment: record.Attachment,
		Styles:     record.Styles,
		Timestamp:  record.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if len(record.Input) > 0 {
		var input any
		if json.Unmarshal(record.Input, &input) == nil {
			out.Input = input
		}
	}
	return out
}

// ChatRespondTool defines the chat_respond tool.
func ChatRespondTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "chat_respond",
		Description: "Answers a chat or input event with one of its response keys.",
	}
}

// ChatRespondHandler records a chat response.
func ChatRespondHandler(runtime Runtime) mcp.ToolHandlerFor[ChatRespondInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ChatRespondInput) (*mcp.CallToolResult, AckResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := runtime.ReceiveChatResponse(runCtx, input.Event, input.Text, input.Response); err != nil {
			return nil, AckResult{}, toolError("chat respond", err)
		}
		return nil, AckResult{OK: true}, nil
	}
}

// ExternalEventTool defines the external_event tool.
func ExternalEventTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "external_event",
		Description: "Delivers an external event to the game. Fails unless the game is listening for it.",
	}
}

// ExternalEventHandler delivers an external event.
func ExternalEventHandler(runtime Runtime) mcp.ToolHandlerFor[EventInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventInput) (*mcp.CallToolResult, AckResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := runtime.ReceiveExternalEvent(runCtx, input.Name); err != nil {
			return nil, AckResult{}, toolError("external event", err)
		}
		return nil, AckResult{OK: true}, nil
	}
}

// OpenAttachmentTool defines the open_attachment tool.
func OpenAttachmentTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "open_attachment",
		Description: "Reports that the user opened the attachment of a chat event.",
	}
}

// OpenAttachmentHandler records an opened attachment.
func OpenAttachmentHandler(runtime Runtime) mcp.ToolHandlerFor[EventInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventInput) (*mcp.CallToolResult, AckResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := runtime.ReceiveOpenAttachment(runCtx, input.Name); err != nil {
			return nil, AckResult{}, toolError("open attachment", err)
		}
		return nil, AckResult{OK: true}, nil
	}
}

// DispatchEventTool defines the dispatch_event tool.
func DispatchEventTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "dispatch_event",
		Description: "Dispatches any timeline event by name. Only available in hacking mode.",
	}
}

// DispatchEventHandler dispatches a timeline event.
func DispatchEventHandler(runtime Runtime) mcp.ToolHandlerFor[EventInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input EventInput) (*mcp.CallToolResult, AckResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := runtime.DispatchEventByName(runCtx, input.Name); err != nil {
			return nil, AckResult{}, toolError("dispatch event", err)
		}
		return nil, AckResult{OK: true}, nil
	}
}

// ResetGameTool defines the reset_game tool.
func ResetGameTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "reset_game",
		Description: "Restores the desktop and starts the game over from the first mission.",
	}
}

// ResetGameHandler resets the game.
func ResetGameHandler(runtime Runtime) mcp.ToolHandlerFor[EmptyInput, AckResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, AckResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, callTimeout)
		defer cancel()

		if err := runtime.ResetGame(runCtx); err != nil {
			return nil, AckResult{}, toolError("reset game", err)
		}
		return nil, AckResult{OK: true}, nil
	}
}

// toolError prefixes the failure with its error code so agents can branch
// on it.
func toolError(action string, err error) error {
	return fmt.Errorf("%s failed [%s]: %w", action, apperrors.As(err).Code, err)
}
