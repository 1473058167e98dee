// Package kafka holds the Kafka connection settings and event envelope used
// to publish job lifecycle events (job.created, job.ready, job.error,
// job.consumed). The writer itself lives in kafka/producer.
package kafka
