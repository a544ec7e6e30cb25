package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kowalskibot/assistant/internal/domain/assistant"
	"github.com/kowalskibot/assistant/internal/domain/auth"
	"github.com/kowalskibot/assistant/internal/infra/config"
	apperrors "github.com/kowalskibot/assistant/pkg/errors"
	"github.com/kowalskibot/assistant/pkg/metrics"
)

func TestRouter_MessageSuccess(t *testing.T) {
	deps := newTestDeps()
	deps.recognizer.intent = assistant.Intent{Utterance: "che ore sono", Name: assistant.IntentTime, Confidence: 0.9}
	deps.assistant.reply = assistant.Reply{Text: "Sono le ore 14:30.", Speak: "Sono le ore 14:30."}

	recorder := performRequest(http.MethodPost, "/api/v1/assistant/messages", `{"text":"che ore sono"}`, newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "Sono le ore 14:30.", got["text"])
	require.Equal(t, "Sono le ore 14:30.", got["speak"])
	require.Equal(t, "/api/v1/speech?text=Sono+le+ore+14%3A30.", got["audioUrl"])

	require.Equal(t, assistant.IntentTime, deps.assistant.lastIntent.Name)
}

func TestRouter_MessageClassifierFailure(t *testing.T) {
	deps := newTestDeps()
	deps.recognizer.err = apperrors.Wrap("recognizer_error", "classification failed", nil)
	deps.assistant.reply = assistant.Reply{Text: "Mi dispiace, non ho capito.", Speak: "Mi dispiace, non ho capito."}

	recorder := performRequest(http.MethodPost, "/api/v1/assistant/messages", `{"text":"bla bla"}`, newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	require.Equal(t, assistant.IntentNone, deps.assistant.lastIntent.Name)
	require.Equal(t, "bla bla", deps.assistant.lastIntent.Utterance)
}

func TestRouter_MessageInvalidJSON(t *testing.T) {
	deps := newTestDeps()

	recorder := performRequest(http.MethodPost, "/api/v1/assistant/messages", `{"text":123}`, newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.NotEmpty(t, errBody["error"]["message"])
}

func TestRouter_MessageEmptyText(t *testing.T) {
	deps := newTestDeps()

	recorder := performRequest(http.MethodPost, "/api/v1/assistant/messages", `{"text":"  "}`, newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_Popular(t *testing.T) {
	deps := newTestDeps()
	deps.assistant.popular = []assistant.TrendingQuery{
		{Query: "Chi era Dante", Count: 3},
		{Query: "Che tempo fa", Count: 1},
	}

	recorder := performRequest(http.MethodGet, "/api/v1/assistant/popular?limit=5", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got map[string][]assistant.TrendingQuery
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Len(t, got["queries"], 2)
	require.Equal(t, "Chi era Dante", got["queries"][0].Query)
}

func TestRouter_PopularInvalidLimit(t *testing.T) {
	deps := newTestDeps()

	recorder := performRequest(http.MethodGet, "/api/v1/assistant/popular?limit=abc", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRouter_Speak(t *testing.T) {
	deps := newTestDeps()
	deps.speech.audio = []byte("mp3-bytes")

	recorder := performRequest(http.MethodGet, "/api/v1/speech?text=ciao", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "audio/mpeg", recorder.Header().Get("Content-Type"))
	require.Equal(t, "mp3-bytes", recorder.Body.String())
	require.Equal(t, "ciao", deps.speech.lastText)
}

func TestRouter_SpeakInvalidInput(t *testing.T) {
	deps := newTestDeps()
	deps.speech.err = apperrors.Wrap("invalid_input", "text cannot be empty", nil)

	recorder := performRequest(http.MethodGet, "/api/v1/speech?text=", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_AuthProtectsAssistant(t *testing.T) {
	deps := newTestDeps()
	deps.authEnabled = true
	deps.assistant.reply = assistant.Reply{Text: "ok", Speak: "ok"}
	server := newRouterUnderTest(t, deps)

	recorder := performRequest(http.MethodPost, "/api/v1/assistant/messages", `{"text":"ciao"}`, server)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	tokenRec := performRequest(http.MethodPost, "/api/v1/auth/token", `{"channelId":"uwp-client","channelSecret":"s3cret"}`, server)
	require.Equal(t, http.StatusOK, tokenRec.Code)

	var tokenResp auth.TokenResponse
	require.NoError(t, json.Unmarshal(tokenRec.Body.Bytes(), &tokenResp))
	require.NotEmpty(t, tokenResp.Token)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/assistant/messages", bytes.NewBufferString(`{"text":"ciao"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tokenResp.Token)
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_IssueTokenBadCredentials(t *testing.T) {
	deps := newTestDeps()
	deps.authEnabled = true

	recorder := performRequest(http.MethodPost, "/api/v1/auth/token", `{"channelId":"uwp-client","channelSecret":"wrong"}`, newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	errBody := decodeErrorBody(t, recorder.Body.Bytes())
	require.Equal(t, "invalid_credentials", errBody["error"]["code"])
}

func TestRouter_Health(t *testing.T) {
	deps := newTestDeps()
	deps.turns.Record(assistant.IntentTime)

	recorder := performRequest(http.MethodGet, "/healthz", "", newRouterUnderTest(t, deps))
	require.Equal(t, http.StatusOK, recorder.Code)

	var got struct {
		Status string           `json:"status"`
		Turns  map[string]int64 `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &got))
	require.Equal(t, "ok", got.Status)
	require.Equal(t, int64(1), got.Turns[assistant.IntentTime])
}

type testDeps struct {
	recognizer  *stubRecognizer
	assistant   *stubAssistant
	speech      *stubSpeech
	turns       *metrics.TurnCounter
	authEnabled bool
}

func newTestDeps() *testDeps {
	return &testDeps{
		recognizer: &stubRecognizer{},
		assistant:  &stubAssistant{},
		speech:     &stubSpeech{},
		turns:      metrics.NewTurnCounter(),
	}
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, deps *testDeps) *http.Server {
	t.Helper()

	secretHash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	authSvc := auth.NewService(auth.Config{
		Enabled:  deps.authEnabled,
		Secret:   "test-signing-secret",
		TokenTTL: time.Hour,
		Channels: []auth.Channel{{ID: "uwp-client", SecretHash: string(secretHash)}},
	}, newTestLogger())

	handler := NewHandler(deps.recognizer, deps.assistant, deps.speech, authSvc, deps.turns, "/api/v1/speech?text=%s", newTestLogger())

	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth: config.AuthConfig{Enabled: deps.authEnabled},
	}
	return NewRouter(cfg, handler, authSvc, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type stubRecognizer struct {
	intent assistant.Intent
	err    error
}

func (s *stubRecognizer) Classify(_ context.Context, utterance string) (assistant.Intent, error) {
	if s.err != nil {
		return assistant.Intent{}, s.err
	}
	intent := s.intent
	if intent.Utterance == "" {
		intent.Utterance = utterance
	}
	return intent, nil
}

type stubAssistant struct {
	reply      assistant.Reply
	popular    []assistant.TrendingQuery
	popularErr error
	lastIntent assistant.Intent
}

func (s *stubAssistant) Route(_ context.Context, intent assistant.Intent) assistant.Reply {
	s.lastIntent = intent
	return s.reply
}

func (s *stubAssistant) Popular(_ context.Context, _ int) ([]assistant.TrendingQuery, error) {
	return s.popular, s.popularErr
}

type stubSpeech struct {
	audio    []byte
	err      error
	lastText string
}

func (s *stubSpeech) Speak(_ context.Context, text string) ([]byte, error) {
	s.lastText = text
	if s.err != nil {
		return nil, s.err
	}
	return s.audio, nil
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
