// Package transcription defines the speech-to-text provider interface and
// the request and result types shared by its backends.
//
// # Backends
//
//   - transcription/whisper: OpenAI Whisper, one synchronous multipart call
//   - transcription/assemblyai: AssemblyAI, create by URL then poll
//
// Providers are wrapped with [Wrap] to apply provider middleware:
//
//	rr := provider.Chain(provider.WithLogging[transcription.Request, *transcription.Result](log))(
//	    transcription.Wrap(whisper.NewProvider(cfg)))
package transcription
