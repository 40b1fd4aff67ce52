// Package httputil provides the HTTP plumbing shared by the railgen API.
//
// # Overview
//
//   - [WriteJSON]: Encode a value as a JSON response
//   - [WriteError]: Encode an error as a JSON problem with a matching status
//   - [DecodeJSON]: Decode a size-limited JSON request body
//
// # Errors
//
// Errors carrying a code from the errors package are mapped to HTTP status
// codes by [StatusFor]:
//
//   - INVALID_* codes: 400 Bad Request
//   - INFEASIBLE_LAYOUT: 422 Unprocessable Entity
//   - *NOT_FOUND codes: 404 Not Found
//   - UNSUPPORTED: 415 Unsupported Media Type
//   - TIMEOUT: 504 Gateway Timeout
//   - everything else: 500 Internal Server Error
//
// The response body is always
//
//	{"code": "MAP_NOT_FOUND", "message": "map 3f0c... not found"}
//
// Internal errors are reported with a generic message so storage details do
// not leak to clients.
package httputil
