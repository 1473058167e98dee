// Package dispatcher admits transcription jobs into a bounded queue and runs
// them on a fixed pool of workers.
//
// Submit persists the clip, creates the job and enqueues it without waiting
// for transcription. When the queue is full Submit fails fast with a
// QUEUE_FULL error. Each worker runs the [FallbackPolicy] under a per-job
// timeout and writes exactly one terminal state; a panicking provider is
// recovered into an error state.
package dispatcher
