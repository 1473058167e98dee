// Package job tracks transcription jobs from submission to their single
// terminal update and the read that consumes them.
//
// The in-memory [Store] is authoritative. [Mirror] implementations copy each
// state change to a side channel (a text file, Redis) for diagnostics, and an
// [EventSink] publishes lifecycle events. Neither can fail a store operation.
package job
