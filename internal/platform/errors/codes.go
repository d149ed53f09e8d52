// Package errors provides coded domain errors that map onto gRPC status codes.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeNoSuchEvent means a referenced timeline event is not defined.
	CodeNoSuchEvent Code = "NO_SUCH_EVENT"
	// CodeNoSuchResponse means a chat event has no response with the given key.
	CodeNoSuchResponse Code = "NO_SUCH_RESPONSE"
	// CodeIrrelevantEvent means an external event arrived while nothing listens for it.
	CodeIrrelevantEvent Code = "IRRELEVANT_EVENT"
	// CodeForbidden means a debug-only operation was attempted without the enabling condition.
	CodeForbidden Code = "FORBIDDEN"
	// CodeInternal covers every other failure, including timeline consistency errors.
	CodeInternal Code = "INTERNAL"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeNoSuchEvent, CodeNoSuchResponse:
		return codes.NotFound
	case CodeIrrelevantEvent:
		return codes.FailedPrecondition
	case CodeForbidden:
		return codes.PermissionDenied
	case CodeInternal:
		return codes.Internal
	default:
		return codes.Unknown
	}
}
