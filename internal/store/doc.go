// Package store keeps the latest monitor state for the watch-mode API.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [SensorReading]: Latest PM10 value of a sensor
//   - [DecisionRecord]: Outcome of the latest evaluation
//   - [Event]: Update pushed to subscribers
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers will miss updates rather than block the monitor).
//
// Nothing is persisted: the store only reflects the current process.
package store
