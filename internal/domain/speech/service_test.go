package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSynth struct {
	audio []byte
	err   error
	calls int
}

func (s *stubSynth) Synthesize(context.Context, string) ([]byte, error) {
	s.calls++
	return s.audio, s.err
}

type stubBlobStore struct {
	objects map[string][]byte
}

func newStubBlobStore() *stubBlobStore {
	return &stubBlobStore{objects: make(map[string][]byte)}
}

func (s *stubBlobStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := s.objects[key]
	return data, ok, nil
}

func (s *stubBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.objects[key] = data
	return nil
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSpeak_SynthesizesOnceThenServesFromStore(t *testing.T) {
	synth := &stubSynth{audio: []byte("mp3-bytes")}
	store := newStubBlobStore()
	svc := NewService(synth, store, "it-IT-ElsaNeural", newTestLogger())

	audio, err := svc.Speak(context.Background(), "Sono le ore 14:30.")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio)
	require.Equal(t, 1, synth.calls)

	audio, err = svc.Speak(context.Background(), "Sono le ore 14:30.")
	require.NoError(t, err)
	require.Equal(t, []byte("mp3-bytes"), audio)
	require.Equal(t, 1, synth.calls, "second request must hit the store")
}

func TestSpeak_RejectsInvalidInput(t *testing.T) {
	svc := NewService(&stubSynth{}, newStubBlobStore(), "it-IT-ElsaNeural", newTestLogger())

	_, err := svc.Speak(context.Background(), "   ")
	require.Error(t, err)

	_, err = svc.Speak(context.Background(), strings.Repeat("a", MaxTextLength+1))
	require.Error(t, err)
}

func TestSpeak_PropagatesSynthesisFailure(t *testing.T) {
	synth := &stubSynth{err: errors.New("service down")}
	svc := NewService(synth, newStubBlobStore(), "it-IT-ElsaNeural", newTestLogger())

	_, err := svc.Speak(context.Background(), "Ciao!")
	require.Error(t, err)
}
