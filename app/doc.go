// Package app assembles the voxrelay binaries from configuration: storage,
// the job store and its mirrors, transcription providers behind the
// fallback policy, the dispatcher, the chat relay, the HTTP API and the
// Telegram bot.
package app
