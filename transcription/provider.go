package transcription

import (
	"context"

	"github.com/kbukum/voxrelay/provider"
)

// Provider is the interface that transcription backends implement.
type Provider interface {
	provider.Provider // embeds Name() and IsAvailable()

	// Transcribe returns the text spoken in req's audio. A provider that
	// produced no words returns a Result with empty Text and no error.
	Transcribe(ctx context.Context, req Request) (*Result, error)
}

// Wrap exposes p as a RequestResponse so provider middleware applies.
func Wrap(p Provider) provider.RequestResponse[Request, *Result] {
	return &wrapped{p: p}
}

type wrapped struct{ p Provider }

func (w *wrapped) Name() string                         { return w.p.Name() }
func (w *wrapped) IsAvailable(ctx context.Context) bool { return w.p.IsAvailable(ctx) }

func (w *wrapped) Execute(ctx context.Context, req Request) (*Result, error) {
	return w.p.Transcribe(ctx, req)
}
