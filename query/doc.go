// Package query reads stored position samples over a time window and
// reshapes them for rendering clients.
//
// Every query runs the same pipeline: read the window from the store, round
// timestamps onto the shared bucket grid, project and normalize coordinates,
// then reshape into the requested layout. Rows stream through the transform
// once; nothing is materialized twice.
//
// Layouts:
//
//   - records: flat list ordered by (timestamp, entity id)
//   - keyed: bucket timestamp -> entity states, in arrival order
//   - pivoted: wide CSV with one column per entity, for the TouchDesigner
//     rendering pipeline
//
// The engine treats the store as read-only.
package query
