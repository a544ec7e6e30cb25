package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"

	apperrors "github.com/kowalskibot/assistant/pkg/errors"
)

// MaxTextLength bounds the synthesizable input, matching the TTS service limit.
const MaxTextLength = 800

// Synthesizer produces audio for a sentence.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// BlobStore persists synthesized audio so each sentence is rendered once.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// Service exposes cached text-to-speech synthesis.
type Service interface {
	Speak(ctx context.Context, text string) ([]byte, error)
}

type service struct {
	synth  Synthesizer
	store  BlobStore
	voice  string
	logger *slog.Logger
}

// NewService wires up the speech domain.
func NewService(synth Synthesizer, store BlobStore, voice string, logger *slog.Logger) Service {
	return &service{
		synth:  synth,
		store:  store,
		voice:  voice,
		logger: logger.With("component", "speech.service"),
	}
}

// Speak returns mp3 audio for the sentence, serving repeats from the store.
func (s *service) Speak(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Wrap("invalid_input", "text cannot be empty", nil)
	}
	if len([]rune(text)) > MaxTextLength {
		return nil, apperrors.Wrap("invalid_input", "text exceeds the synthesizable length", nil)
	}

	key := s.objectKey(text)
	if audio, ok, err := s.store.Get(ctx, key); err == nil && ok {
		s.logger.Debug("speech served from store", "key", key)
		return audio, nil
	} else if err != nil {
		s.logger.Warn("speech store lookup failed", "error", err)
	}

	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return nil, apperrors.Wrap("speech_error", "speech synthesis failed", err)
	}
	if err := s.store.Put(ctx, key, audio, "audio/mpeg"); err != nil {
		s.logger.Warn("speech store save failed", "error", err)
	}
	return audio, nil
}

func (s *service) objectKey(text string) string {
	sum := sha256.Sum256([]byte(s.voice + "|" + text))
	return hex.EncodeToString(sum[:]) + ".mp3"
}
