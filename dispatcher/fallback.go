package dispatcher

import (
	"context"
	"net/http"

	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/provider"
	"github.com/kbukum/voxrelay/transcription"
)

// Transcriber is one provider as seen by the fallback policy.
type Transcriber = provider.RequestResponse[transcription.Request, *transcription.Result]

// NoProviderText is the job error text when no provider is configured.
const NoProviderText = "No transcription provider is configured"

// FallbackPolicy tries providers in order. Unavailable providers are
// skipped; the first success wins.
type FallbackPolicy struct {
	providers []Transcriber
	log       *logger.Logger
}

// NewFallbackPolicy orders providers from primary to last resort.
func NewFallbackPolicy(log *logger.Logger, providers ...Transcriber) *FallbackPolicy {
	if log == nil {
		log = logger.Nop()
	}
	return &FallbackPolicy{providers: providers, log: log.WithComponent("fallback")}
}

// Providers returns the configured providers in order.
func (p *FallbackPolicy) Providers() []Transcriber { return p.providers }

// Run returns the text to store on a ready job. An empty transcription
// becomes transcription.EmptyText. When every attempted provider fails the
// last failure is returned; when none was available the error carries
// NoProviderText.
func (p *FallbackPolicy) Run(ctx context.Context, req transcription.Request) (string, error) {
	var lastErr error
	for _, prov := range p.providers {
		if !prov.IsAvailable(ctx) {
			p.log.Debug("provider skipped", logger.Fields(logger.FieldJobID, req.JobID, logger.FieldProvider, prov.Name()))
			continue
		}
		res, err := prov.Execute(ctx, req)
		if err == nil {
			return res.DisplayText(), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		p.log.Info("falling back", logger.Fields(logger.FieldJobID, req.JobID, logger.FieldProvider, prov.Name(), logger.FieldError, err.Error()))
	}
	if lastErr == nil {
		return "", apperrors.New(apperrors.ErrCodeProviderUnavailable, NoProviderText, http.StatusServiceUnavailable)
	}
	return "", lastErr
}
