// Package api exposes the job service over HTTP: audio submission, status
// polling, file serving for URL-fetching providers, and the chat relay.
//
//	POST /api/audio                 multipart field "audio" -> {"recording_id"}
//	GET  /api/transcription/:id     {"status"} | {"status","error"} | {"status","transcription"}
//	POST /api/chat                  {"question"} -> {"answer"}
//	GET  /api/jobs?limit=N          job history, when a history mirror is configured
//	GET  /files/:name               stored audio blob
package api
