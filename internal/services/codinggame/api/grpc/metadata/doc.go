// Package metadata defines the gRPC headers the coding game service reads
// and the interceptors that attach a request id to every call.
//
//   - RequestIDHeader: correlates log lines for one call. Generated when the
//     caller sends none and echoed back in the response headers.
//   - AcceptLanguageHeader: selects the language of user-facing error
//     messages.
package metadata
