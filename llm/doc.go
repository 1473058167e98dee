// Package llm is a small chat-completion client.
//
// An [Adapter] pairs an [httpclient.Client] with a [Dialect] that maps the
// provider-neutral [CompletionRequest] to the provider's wire format and back.
// Dialects register themselves by name:
//
//	import _ "github.com/kbukum/voxrelay/llm/openai"
//
//	adapter, err := llm.New(llm.Config{Dialect: "openai", APIKey: key})
//	resp, err := adapter.Complete(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{llm.UserMessage("Hello")},
//	})
package llm
