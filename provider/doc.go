// Package provider defines the shape shared by every external service adapter
// (speech-to-text, chat completion) and the middleware that wraps them.
//
// A RequestResponse provider is one call in, one result out. Cross-cutting
// behavior is layered with Chain:
//
//	p = provider.Chain(
//		provider.WithLogging[Req, Resp](log),
//		provider.WithTracing[Req, Resp]("voxrelay"),
//		provider.WithMetrics[Req, Resp](metrics),
//	)(p)
//	p = provider.WithResilience(p, provider.ResilienceConfig{CircuitBreaker: &cb})
package provider
