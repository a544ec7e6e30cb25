package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
	"github.com/kowalskibot/assistant/internal/domain/auth"
	"github.com/kowalskibot/assistant/internal/domain/speech"
	apperrors "github.com/kowalskibot/assistant/pkg/errors"
	"github.com/kowalskibot/assistant/pkg/metrics"
)

// Recognizer classifies an utterance into an intent.
type Recognizer interface {
	Classify(ctx context.Context, utterance string) (assistant.Intent, error)
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	recognizer   Recognizer
	assistantSvc assistant.Service
	speechSvc    speech.Service
	authSvc      auth.Service
	turns        *metrics.TurnCounter
	speechURI    string
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(
	recognizer Recognizer,
	assistantSvc assistant.Service,
	speechSvc speech.Service,
	authSvc auth.Service,
	turns *metrics.TurnCounter,
	speechURI string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		recognizer:   recognizer,
		assistantSvc: assistantSvc,
		speechSvc:    speechSvc,
		authSvc:      authSvc,
		turns:        turns,
		speechURI:    speechURI,
		logger:       logger.With("component", "http.handler"),
	}
}

type messageRequest struct {
	Text string `json:"text"`
}

type messageResponse struct {
	Text     string `json:"text"`
	Speak    string `json:"speak"`
	AudioURL string `json:"audioUrl,omitempty"`
}

// Message runs one conversational turn: classify the utterance, route it and
// return the rendered reply.
func (h *Handler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "text cannot be empty", nil))
		return
	}

	intent, err := h.recognizer.Classify(c.Request.Context(), text)
	if err != nil {
		// A broken classifier must not break the conversation.
		h.logger.Warn("intent classification failed", "error", err)
		intent = assistant.Intent{Utterance: text, Name: assistant.IntentNone}
	}

	reply := h.assistantSvc.Route(c.Request.Context(), intent)

	resp := messageResponse{
		Text:  reply.Text,
		Speak: reply.Speak,
	}
	if h.speechURI != "" && reply.Speak != "" {
		resp.AudioURL = fmt.Sprintf(h.speechURI, url.QueryEscape(reply.Speak))
	}
	c.JSON(http.StatusOK, resp)
}

// Popular returns the most frequently asked search queries.
func (h *Handler) Popular(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a positive integer", err))
			return
		}
		limit = parsed
	}

	items, err := h.assistantSvc.Popular(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "popular_failed", errMessage(err), err))
		return
	}
	if items == nil {
		items = []assistant.TrendingQuery{}
	}
	c.JSON(http.StatusOK, gin.H{"queries": items})
}

// Speak synthesizes the given text and streams back an MP3 clip.
func (h *Handler) Speak(c *gin.Context) {
	audio, err := h.speechSvc.Speak(c.Request.Context(), c.Query("text"))
	if err != nil {
		status := http.StatusBadGateway
		code := "speech_failed"
		if apperrors.IsCode(err, "invalid_input") {
			status = http.StatusBadRequest
			code = "invalid_request"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// IssueToken exchanges channel credentials for a bearer token.
func (h *Handler) IssueToken(c *gin.Context) {
	var req auth.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.IssueToken(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "auth_failed"
		if apperrors.IsCode(err, "invalid_credentials") {
			status = http.StatusUnauthorized
			code = "invalid_credentials"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness along with per-intent turn counters.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"turns":  h.turns.Snapshot(),
	})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
