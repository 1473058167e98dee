package util

// DefaultAudioExt is used when an upload carries no usable extension.
const DefaultAudioExt = "m4a"

var audioContentTypes = map[string]string{
	"ogg":  "audio/ogg",
	"oga":  "audio/ogg",
	"m4a":  "audio/m4a",
	"mp4":  "audio/mp4",
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"flac": "audio/flac",
}

// AudioContentType maps a file extension (without dot) to its audio MIME
// type, falling back to audio/m4a.
func AudioContentType(ext string) string {
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	return "audio/m4a"
}

// IsAudioExt reports whether ext is a known audio extension.
func IsAudioExt(ext string) bool {
	_, ok := audioContentTypes[ext]
	return ok
}
