// Package codinggame exposes the game runtime over gRPC.
//
// The service descriptor is written by hand and uses only protobuf
// well-known types, so clients need no generated stubs beyond this package.
// Domain errors are converted to gRPC statuses carrying an ErrorInfo with
// the error code and a LocalizedMessage in the caller's accept-language.
package codinggame
