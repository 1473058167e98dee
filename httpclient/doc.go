// Package httpclient is the outbound HTTP client used by every provider
// adapter (Whisper, AssemblyAI, chat completions, Telegram Bot API) and by
// the job polling client.
//
// Bodies are encoded from Go values: []byte, string, io.Reader,
// *MultipartBody for uploads, anything else as JSON. Non-2xx replies come
// back as *Error with a classification that decides retries:
//
//	c, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.openai.com", Auth: httpclient.BearerAuth(key)})
//	out, err := httpclient.PostJSON[reply](ctx, c, "/v1/chat/completions", req)
package httpclient
