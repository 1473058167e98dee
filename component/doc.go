// Package component defines the lifecycle contract shared by long-running
// parts of voxrelay (HTTP server, dispatcher, Redis mirror, Kafka publisher,
// Telegram bot) and a registry that starts them in order and stops them in
// reverse.
package component
