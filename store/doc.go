// Package store provides durable time-series storage for position samples.
//
// The Store interface is the only contract the rest of the system depends
// on: collectors write bucket-rounded batches and the query engine reads
// half-open time windows. Three backends implement it:
//
//   - Influx: InfluxDB 2.x, the production backend
//   - Postgres: relational fallback, upsert on (entity_id, timestamp)
//   - Memory: in-process, for tests and local development
//
// Every backend resolves duplicate writes for the same (entity_id, rounded
// timestamp) pair with last-write-wins. For InfluxDB that is the engine's
// native behavior for identical series and timestamp; the other backends
// replicate it so the choice of backend never changes query results.
package store
