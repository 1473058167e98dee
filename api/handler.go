package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/voxrelay/authz"
	"github.com/kbukum/voxrelay/dispatcher"
	apperrors "github.com/kbukum/voxrelay/errors"
	"github.com/kbukum/voxrelay/job"
	"github.com/kbukum/voxrelay/logger"
	"github.com/kbukum/voxrelay/server"
	"github.com/kbukum/voxrelay/storage"
	"github.com/kbukum/voxrelay/util"
	"github.com/kbukum/voxrelay/validation"
)

// AudioField is the multipart field carrying the uploaded clip.
const AudioField = "audio"

// Client-visible error messages.
const (
	MsgMissingAudio = "Missing audio"
	MsgUnknownJob   = "Unknown job"
	MsgFileNotFound = "File not found"
)

const serverErrorPrefix = "Server error: "

// Submitter accepts uploads for asynchronous transcription.
type Submitter interface {
	Submit(ctx context.Context, up dispatcher.Upload) (string, error)
}

// Asker answers chat questions. It never fails; errors come back as text.
type Asker interface {
	Ask(ctx context.Context, question string) string
}

// SubmitResponse is returned by POST /api/audio.
type SubmitResponse struct {
	RecordingID string `json:"recording_id"`
}

// StatusResponse is returned by GET /api/transcription/:id. Only the field
// matching Status is set.
type StatusResponse struct {
	Status        job.Status `json:"status"`
	Error         string     `json:"error,omitempty"`
	Transcription *string    `json:"transcription,omitempty"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Question string `json:"question" validate:"max=8000"`
}

// ChatResponse is always returned with 200.
type ChatResponse struct {
	Answer string `json:"answer"`
}

// History lists past jobs, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]job.Record, error)
}

// Guard returns middleware that admits only callers holding permission.
type Guard func(permission string) gin.HandlerFunc

// Handler serves the job API.
type Handler struct {
	submitter Submitter
	store     *job.Store
	storage   storage.Storage
	chat      Asker
	history   History
	guard     Guard
	log       *logger.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithHistory enables GET /api/jobs.
func WithHistory(hist History) Option { return func(h *Handler) { h.history = hist } }

// WithGuard checks a permission on every /api route.
func WithGuard(g Guard) Option { return func(h *Handler) { h.guard = g } }

// NewHandler wires the handlers. chat may be nil, in which case /api/chat is
// not registered.
func NewHandler(submitter Submitter, store *job.Store, st storage.Storage, chat Asker, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{
		submitter: submitter,
		store:     store,
		storage:   st,
		chat:      chat,
		log:       log.WithComponent("api"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the /api routes on r.
func (h *Handler) Register(r gin.IRouter) {
	g := r.Group("/api")
	g.POST("/audio", h.guarded(authz.JobsSubmit, h.Submit)...)
	g.GET("/transcription/:id", h.guarded(authz.JobsRead, h.Status)...)
	if h.chat != nil {
		g.POST("/chat", h.guarded(authz.ChatAsk, h.Chat)...)
	}
	if h.history != nil {
		g.GET("/jobs", h.guarded(authz.JobsHistory, h.Jobs)...)
	}
}

func (h *Handler) guarded(permission string, handler gin.HandlerFunc) []gin.HandlerFunc {
	if h.guard == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{h.guard(permission), handler}
}

// RegisterFiles mounts GET /files/:name. It is kept apart from Register so
// it can stay outside authentication; providers fetch audio by URL.
func (h *Handler) RegisterFiles(r gin.IRouter) {
	r.GET("/files/:name", h.ServeFile)
}

// Submit stores the uploaded clip and returns its job id without waiting for
// transcription.
func (h *Handler) Submit(c *gin.Context) {
	fh, err := c.FormFile(AudioField)
	if err != nil {
		server.Error(c, http.StatusBadRequest, MsgMissingAudio)
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.RespondWithMessage(c, err)
		return
	}
	defer f.Close()

	id, err := h.submitter.Submit(c.Request.Context(), dispatcher.Upload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		h.log.WithContext(c.Request.Context()).Warn("upload rejected", logger.Fields(
			logger.FieldFile, fh.Filename, logger.FieldError, err.Error()))
		server.RespondWithMessage(c, err)
		return
	}
	c.JSON(http.StatusOK, SubmitResponse{RecordingID: id})
}

// Status reports a job's state. A ready job is handed out once: the record is
// removed and its audio deleted. Error jobs stay readable.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	j, err := h.store.Fetch(ctx, id)
	if errors.Is(err, job.ErrNotFound) {
		server.Error(c, http.StatusNotFound, MsgUnknownJob)
		return
	}
	if err != nil {
		server.RespondWithMessage(c, err)
		return
	}

	switch j.Status {
	case job.StatusError:
		c.JSON(http.StatusOK, StatusResponse{Status: j.Status, Error: j.Text})
	case job.StatusReady:
		if err := h.storage.Delete(context.WithoutCancel(ctx), j.AudioKey); err != nil {
			h.log.WithContext(ctx).Warn("audio cleanup failed", logger.Fields(
				logger.FieldJobID, id, logger.FieldFile, j.AudioKey, logger.FieldError, err.Error()))
		}
		text := j.Text
		c.JSON(http.StatusOK, StatusResponse{Status: j.Status, Transcription: &text})
	default:
		c.JSON(http.StatusOK, StatusResponse{Status: j.Status})
	}
}

// ServeFile streams a stored clip by its generated name. Only the audio key
// of a job still in the store is served; the route has no auth, and data_dir
// also holds result side files.
func (h *Handler) ServeFile(c *gin.Context) {
	name := c.Param("name")
	if !h.servable(name) {
		server.Error(c, http.StatusNotFound, MsgFileNotFound)
		return
	}
	rc, err := h.storage.Download(c.Request.Context(), name)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		server.Error(c, http.StatusNotFound, MsgFileNotFound)
		return
	}
	if err != nil {
		server.RespondWithMessage(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, -1, util.AudioContentType(util.DefaultAudioExt), rc, nil)
}

func (h *Handler) servable(name string) bool {
	if !util.SafeFileName(name) {
		return false
	}
	ext := util.FileExt(name)
	if !util.IsAudioExt(ext) {
		return false
	}
	j, err := h.store.Get(name[:len(name)-len(ext)-1])
	return err == nil && j.AudioKey == name
}

// Chat relays a question. The response is always 200 with an answer, even
// for malformed requests.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusOK, ChatResponse{Answer: serverErrorPrefix + err.Error()})
		return
	}
	if err := validation.Validate(req); err != nil {
		msg := err.Error()
		if appErr, ok := apperrors.AsAppError(err); ok {
			msg = appErr.Message
		}
		c.JSON(http.StatusOK, ChatResponse{Answer: "Error: " + msg})
		return
	}
	answer := h.chat.Ask(c.Request.Context(), strings.TrimSpace(req.Question))
	c.JSON(http.StatusOK, ChatResponse{Answer: answer})
}
