package voice

import (
	"context"
	"io"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// Speech converts between audio and text.
type Speech interface {
	// Transcribe returns the text spoken in audio. name is the uploaded
	// file name; the provider uses its extension to detect the format.
	Transcribe(ctx context.Context, audio io.Reader, name string) (string, error)

	// Synthesize returns MP3 audio for text. voice overrides the default
	// voice when set. The caller closes the returned reader.
	Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error)
}

// OpenAIConfig configures the OpenAI speech client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	STTModel   string  // default whisper-1
	TTSModel   string  // default tts-1
	Voice      string  // default onyx
	Speed      float64 // default 1.0
	Language   string  // default en
	HTTPClient *http.Client
}

// OpenAISpeech implements Speech with the OpenAI audio API.
type OpenAISpeech struct {
	client   *openai.Client
	sttModel string
	ttsModel string
	voice    string
	speed    float64
	language string
}

var _ Speech = (*OpenAISpeech)(nil)

// NewOpenAISpeech creates an OpenAI speech client.
func NewOpenAISpeech(cfg OpenAIConfig) (*OpenAISpeech, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewBuilder(errors.CodeVoiceUnavailable, "no OpenAI API key configured").
			User().
			WithSuggestion("Set OPENAI_API_KEY or voice.openai_api_key").
			Build()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	client := openai.NewClient(opts...)

	s := &OpenAISpeech{
		client:   &client,
		sttModel: cfg.STTModel,
		ttsModel: cfg.TTSModel,
		voice:    cfg.Voice,
		speed:    cfg.Speed,
		language: cfg.Language,
	}
	if s.sttModel == "" {
		s.sttModel = "whisper-1"
	}
	if s.ttsModel == "" {
		s.ttsModel = "tts-1"
	}
	if s.voice == "" {
		s.voice = "onyx"
	}
	if s.speed <= 0 {
		s.speed = 1.0
	}
	if s.language == "" {
		s.language = "en"
	}
	return s, nil
}

// Transcribe sends audio to the transcription endpoint.
func (s *OpenAISpeech) Transcribe(ctx context.Context, audio io.Reader, name string) (string, error) {
	resp, err := s.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(audio, name, "application/octet-stream"),
		Model:    openai.AudioModel(s.sttModel),
		Language: openai.String(s.language),
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeVoiceUnavailable, "transcription failed", errors.CategoryTemporary)
	}
	return resp.Text, nil
}

// Synthesize sends text to the speech endpoint and returns the MP3 stream.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text, voice string) (io.ReadCloser, error) {
	if voice == "" {
		voice = s.voice
	}
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(s.ttsModel),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(s.speed),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeVoiceUnavailable, "speech synthesis failed", errors.CategoryTemporary)
	}
	return resp.Body, nil
}
