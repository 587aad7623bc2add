// Package serve exposes the query engine over HTTP and pushes live batches
// over websockets.
//
// Endpoints under /trains return the window layouts produced by the query
// engine (records, keyed, pivoted CSV, types CSV) and are guarded by an API
// key header. Window parameters default to the last 10 seconds; timestamps
// without a zone are coerced to the configured default zone with a warning
// rather than silently read as UTC.
//
// Error mapping: invalid ranges and malformed parameters are client errors
// (400), an empty CSV window is 204 No Content, store failures are 500.
package serve
