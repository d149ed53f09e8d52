// Package mcp exposes the game runtime as Model Context Protocol tools, so
// an agent can inspect the game state, read chat history and drive the
// timeline the same way the gRPC clients do.
package mcp
