// Package telegram is a Telegram bot that transcribes voice notes and audio
// files through the job API. It only acts as a client: audio is downloaded
// from Telegram, uploaded to the service and polled until the text is ready.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/voxrelay/component"
	"github.com/kbukum/voxrelay/httpclient"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/resilience"
	"github.com/kbukum/voxrelay/util"
)

// Replies sent to users.
const (
	TextStart      = "Hi! Send me a voice message or an audio file and I will transcribe it."
	TextHelp       = "Just send me a voice message or an audio file and I will reply with its text."
	TextGreeting   = "👋 Hi! Send me a voice message or an audio file and I will transcribe it.\n\nUse /help for help."
	TextProcessing = "🎤 Processing audio..."
	TextUploading  = "🔄 Uploading..."
	TextWorking    = "🔄 Transcribing..."
	TextUploadFail = "❌ Error: could not upload the file."
	TextNoResult   = "❌ Could not get the transcription. Please try again."
	prefixResult   = "✅ Transcription:\n\n"
	prefixJobError = "❌ Transcription error:\n\n"
	prefixFailure  = "❌ Something went wrong: "
)

// uploadName is the file name every clip is submitted under; the service
// keys storage by job id and only looks at the extension.
const uploadName = "audio.m4a"

// Jobs is the job API as used by the bot.
type Jobs interface {
	Upload(ctx context.Context, fileName, contentType string, audio io.Reader) (string, error)
	Wait(ctx context.Context, id string) (string, error)
}

// JobFailure is implemented by errors that carry a job's own error text.
type JobFailure interface {
	error
	JobMessage() string
}

// Bot long-polls Telegram and answers messages.
type Bot struct {
	cfg   Config
	api   *httpclient.Client
	files *httpclient.Client
	jobs  Jobs
	log   *logger.Logger

	sem     chan struct{}
	wg      sync.WaitGroup
	offset  int64
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	lastErr error
}

var (
	_ component.Component   = (*Bot)(nil)
	_ component.Describable = (*Bot)(nil)
)

// Option configures a Bot.
type Option func(*Bot)

// WithLogger sets the bot logger.
func WithLogger(l *logger.Logger) Option { return func(b *Bot) { b.log = l } }

// New creates a bot. It fails with ErrNoToken when cfg.Token is empty.
func New(cfg Config, jobs Jobs, opts ...Option) (*Bot, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	cfg.ApplyDefaults()
	base := strings.TrimRight(cfg.BaseURL, "/")
	api, err := httpclient.New(httpclient.Config{
		BaseURL: base + "/bot" + cfg.Token,
		Timeout: cfg.PollTimeout + 10*time.Second,
	})
	if err != nil {
		return nil, err
	}
	files, err := httpclient.New(httpclient.Config{BaseURL: base + "/file/bot" + cfg.Token, Timeout: 60 * time.Second})
	if err != nil {
		return nil, err
	}
	b := &Bot{
		cfg:   cfg,
		api:   api,
		files: files,
		jobs:  jobs,
		log:   logger.Nop(),
		sem:   make(chan struct{}, cfg.MaxConcurrent),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.WithComponent("telegram")
	return b, nil
}

// Name implements component.Component.
func (b *Bot) Name() string { return "telegram-bot" }

// Describe implements component.Describable.
func (b *Bot) Describe() string {
	return "Telegram bot (token " + util.MaskSecret(b.cfg.Token, 6) + ")"
}

// Start runs the polling loop in the background.
func (b *Bot) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.cancel = cancel
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		if err := b.Run(runCtx); err != nil {
			b.log.Error("bot stopped", logger.Fields(logger.FieldError, err.Error()))
		}
	}()
	return nil
}

// Stop cancels polling and waits for in-flight messages to finish.
func (b *Bot) Stop(ctx context.Context) error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health is degraded while getUpdates keeps failing.
func (b *Bot) Health(context.Context) component.Health {
	b.mu.Lock()
	err := b.lastErr
	b.mu.Unlock()
	if err != nil {
		return component.Health{Name: b.Name(), Status: component.StatusDegraded, Message: err.Error()}
	}
	return component.Health{Name: b.Name(), Status: component.StatusHealthy}
}

// Run long-polls getUpdates until ctx is done, handling each update in its
// own goroutine. It returns nil on cancellation after in-flight handlers
// finish.
func (b *Bot) Run(ctx context.Context) error {
	defer b.wg.Wait()

	if !b.cfg.KeepPending {
		if _, err := call[bool](ctx, b, "deleteWebhook", deleteWebhookParams{DropPendingUpdates: true}); err != nil {
			b.log.Warn("could not drop pending updates", logger.Fields(logger.FieldError, err.Error()))
		}
	}
	b.log.Info("bot polling started")

	backoff := resilience.RetryConfig{InitialBackoff: b.cfg.ErrorBackoff, MaxBackoff: time.Minute, BackoffFactor: 2}
	failures := 0
	for {
		if ctx.Err() != nil {
			return nil
		}
		updates, err := call[[]Update](ctx, b, "getUpdates", getUpdatesParams{
			Offset:         b.offset,
			Timeout:        int(b.cfg.PollTimeout / time.Second),
			AllowedUpdates: []string{"message"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			b.setErr(err)
			failures++
			b.log.Warn("getUpdates failed", logger.Fields(logger.FieldAttempt, failures, logger.FieldError, err.Error()))
			if sleepErr := sleep(ctx, resilience.Backoff(failures, backoff)); sleepErr != nil {
				return nil
			}
			continue
		}
		failures = 0
		b.setErr(nil)

		for _, u := range updates {
			b.offset = u.UpdateID + 1
			select {
			case b.sem <- struct{}{}:
			case <-ctx.Done():
				return nil
			}
			b.wg.Add(1)
			go func(u Update) {
				defer func() {
					<-b.sem
					b.wg.Done()
				}()
				b.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// HandleUpdate dispatches one update: commands, plain text, then audio.
// Anything else is ignored.
func (b *Bot) HandleUpdate(ctx context.Context, u Update) {
	msg := u.Message
	if msg == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("update handler panicked", logger.Fields(logger.FieldChatID, msg.Chat.ID, logger.FieldError, fmt.Sprint(r)))
		}
	}()

	var err error
	switch {
	case isCommand(msg.Text, "start"):
		_, err = b.send(ctx, msg.Chat.ID, TextStart)
	case isCommand(msg.Text, "help"):
		_, err = b.send(ctx, msg.Chat.ID, TextHelp)
	case strings.HasPrefix(msg.Text, "/"):
	case msg.Text != "":
		_, err = b.send(ctx, msg.Chat.ID, TextGreeting)
	default:
		err = b.HandleAudio(ctx, msg)
	}
	if err != nil {
		b.log.Warn("reply failed", logger.Fields(logger.FieldChatID, msg.Chat.ID, logger.FieldError, err.Error()))
	}
}

// HandleAudio transcribes a voice note, audio file or audio document and
// edits a status message as the job progresses. Non-audio messages are
// ignored.
func (b *Bot) HandleAudio(ctx context.Context, msg *Message) error {
	fileID, ext, ok := audioOf(msg)
	if !ok {
		return nil
	}
	log := b.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldChatID, msg.Chat.ID))

	status, err := b.send(ctx, msg.Chat.ID, TextProcessing)
	if err != nil {
		return err
	}
	edit := func(text string) error { return b.edit(ctx, msg.Chat.ID, status.MessageID, text) }

	audio, err := b.download(ctx, fileID)
	if err != nil {
		log.Warn("download failed", logger.Fields(logger.FieldError, err.Error()))
		return edit(prefixFailure + err.Error())
	}
	log.Debug("audio downloaded", logger.Fields(logger.FieldBytes, len(audio)))

	if err := edit(TextUploading); err != nil {
		return err
	}
	id, err := b.jobs.Upload(ctx, uploadName, util.AudioContentType(ext), bytes.NewReader(audio))
	if err != nil {
		log.Warn("upload failed", logger.Fields(logger.FieldError, err.Error()))
		return edit(TextUploadFail)
	}
	log = log.WithFields(logger.Fields(logger.FieldJobID, id))

	if err := edit(TextWorking); err != nil {
		return err
	}
	text, err := b.jobs.Wait(ctx, id)
	var jf JobFailure
	switch {
	case err == nil:
		return edit(prefixResult + text)
	case errors.As(err, &jf):
		return edit(prefixJobError + jf.JobMessage())
	default:
		log.Warn("transcription not received", logger.Fields(logger.FieldError, err.Error()))
		return edit(TextNoResult)
	}
}

// audioOf returns the file to transcribe and its extension. Documents count
// only with an audio/* MIME type.
func audioOf(msg *Message) (fileID, ext string, ok bool) {
	switch {
	case msg.Voice != nil:
		return msg.Voice.FileID, "ogg", true
	case msg.Audio != nil:
		return msg.Audio.FileID, extOr(msg.Audio.FileName), true
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "audio/"):
		return msg.Document.FileID, extOr(msg.Document.FileName), true
	}
	return "", "", false
}

func extOr(name string) string {
	return util.Coalesce(util.FileExt(name), util.DefaultAudioExt)
}

// isCommand matches "/name" and "/name@botname".
func isCommand(text, name string) bool {
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/"+name
}

func (b *Bot) send(ctx context.Context, chatID int64, text string) (Message, error) {
	return call[Message](ctx, b, "sendMessage", sendMessageParams{ChatID: chatID, Text: text})
}

func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string) error {
	_, err := call[Message](ctx, b, "editMessageText", editMessageParams{ChatID: chatID, MessageID: messageID, Text: text})
	return err
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	f, err := call[File](ctx, b, "getFile", getFileParams{FileID: fileID})
	if err != nil {
		return nil, err
	}
	if f.FilePath == "" {
		return nil, errors.New("telegram: getFile returned no path")
	}
	resp, err := b.files.Do(ctx, httpclient.Request{Method: http.MethodGet, Path: f.FilePath})
	if err != nil {
		return nil, fmt.Errorf("telegram: download file: %s", b.redact(err))
	}
	if len(resp.Body) == 0 {
		return nil, errors.New("telegram: downloaded file is empty")
	}
	return resp.Body, nil
}

// call invokes a Bot API method. Errors never contain the token.
func call[T any](ctx context.Context, b *Bot, method string, params any) (T, error) {
	var zero T
	resp, err := httpclient.DoJSON[apiResponse[T]](ctx, b.api, httpclient.Request{
		Method: http.MethodPost,
		Path:   method,
		Body:   params,
	})
	if err != nil {
		return zero, fmt.Errorf("telegram %s: %s", method, b.redact(err))
	}
	if !resp.OK {
		return zero, fmt.Errorf("telegram %s: %s", method, util.Coalesce(resp.Description, "request rejected"))
	}
	return resp.Result, nil
}

func (b *Bot) redact(err error) string {
	return strings.ReplaceAll(err.Error(), b.cfg.Token, util.MaskSecret(b.cfg.Token, 6))
}

func (b *Bot) setErr(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
