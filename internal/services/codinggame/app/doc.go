// Package app wires the coding game service: it loads the timeline, opens
// the event log and desktop stores, starts the engine's run loop and serves
// the runtime over gRPC and, optionally, MCP.
package app
