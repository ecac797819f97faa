package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Kajaqq/SmartSubs/internal/gemini"
	"github.com/Kajaqq/SmartSubs/internal/srt"
)

const validResponse = "1\n00:00:01,000 --> 00:00:03,000\n[Speaker 1] Hello.\n\n" +
	"2\n00:00:03,500 --> 00:00:05,000\n[Speaker 2] Hi there.\n"

const translatedResponse = "1\n00:00:01,000 --> 00:00:03,000\n[Speaker 1] Bonjour.\n\n" +
	"2\n00:00:03,500 --> 00:00:05,000\n[Speaker 2] Salut.\n"

type fakeModel struct {
	transcribeResp string
	transcribeErr  error
	translateResp  string
	translateErr   map[string]error

	mu         sync.Mutex
	translated []string
}

func (m *fakeModel) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return m.transcribeResp, m.transcribeErr
}

func (m *fakeModel) Translate(ctx context.Context, transcript, language string) (string, error) {
	m.mu.Lock()
	m.translated = append(m.translated, language)
	m.mu.Unlock()

	if err, ok := m.translateErr[language]; ok {
		return "", err
	}
	return m.translateResp, nil
}

func tempInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp3")
	if err := os.WriteFile(path, []byte("not real audio"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_WritesBaseSubtitles(t *testing.T) {
	input := tempInput(t)
	model := &fakeModel{transcribeResp: validResponse}

	err := Run(context.Background(), model, Options{InputPath: input})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	srtPath := strings.TrimSuffix(input, ".mp3") + ".srt"
	data, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	if !strings.Contains(string(data), "[Speaker 1] Hello.") {
		t.Errorf("output missing expected caption:\n%s", data)
	}

	// Re-parse the written file to confirm it is valid SRT.
	if _, err := srt.Parse(string(data), srt.Options{}); err != nil {
		t.Errorf("written file does not re-parse: %v", err)
	}
}

func TestRun_EmptyTranscriptWritesNothing(t *testing.T) {
	input := tempInput(t)
	model := &fakeModel{transcribeResp: "no usable captions in this text"}

	err := Run(context.Background(), model, Options{InputPath: input})
	if !errors.Is(err, srt.ErrEmptyTranscript) {
		t.Fatalf("err = %v, want ErrEmptyTranscript", err)
	}

	srtPath := strings.TrimSuffix(input, ".mp3") + ".srt"
	if _, err := os.Stat(srtPath); !os.IsNotExist(err) {
		t.Error("no output file should be written for an empty transcript")
	}
}

func TestRun_TranscribeFailureWritesNothing(t *testing.T) {
	input := tempInput(t)
	modelErr := &gemini.ModelError{Pass: gemini.PassTranscription, Err: errors.New("quota exceeded")}
	model := &fakeModel{transcribeErr: modelErr}

	err := Run(context.Background(), model, Options{InputPath: input})
	var me *gemini.ModelError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want ModelError", err)
	}

	srtPath := strings.TrimSuffix(input, ".mp3") + ".srt"
	if _, err := os.Stat(srtPath); !os.IsNotExist(err) {
		t.Error("no output file should be written when the model call fails")
	}
}

func TestRun_TranslationWritesLanguageFile(t *testing.T) {
	input := tempInput(t)
	model := &fakeModel{transcribeResp: validResponse, translateResp: translatedResponse}

	err := Run(context.Background(), model, Options{
		InputPath: input,
		Languages: []string{"French"},
	})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	frPath := strings.TrimSuffix(input, ".mp3") + "_french.srt"
	data, err := os.ReadFile(frPath)
	if err != nil {
		t.Fatalf("expected translated file: %v", err)
	}
	if !strings.Contains(string(data), "Bonjour.") {
		t.Errorf("translated output missing expected caption:\n%s", data)
	}
}

func TestRun_TranslationFailurePreservesBase(t *testing.T) {
	input := tempInput(t)
	model := &fakeModel{
		transcribeResp: validResponse,
		translateResp:  translatedResponse,
		translateErr: map[string]error{
			"French": &gemini.ModelError{Pass: gemini.PassTranslation, Err: errors.New("network down")},
		},
	}

	err := Run(context.Background(), model, Options{
		InputPath: input,
		Languages: []string{"French", "German"},
	})

	var pe *PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want PartialError", err)
	}
	if len(model.translated) != 2 {
		t.Errorf("both translation passes should run, got %v", model.translated)
	}
	if _, ok := pe.Failures["French"]; !ok {
		t.Errorf("Failures = %v, want French recorded", pe.Failures)
	}

	// Base transcript must exist and be valid.
	srtPath := strings.TrimSuffix(input, ".mp3") + ".srt"
	data, err := os.ReadFile(srtPath)
	if err != nil {
		t.Fatalf("base transcript should be preserved: %v", err)
	}
	if _, err := srt.Parse(string(data), srt.Options{}); err != nil {
		t.Errorf("base transcript does not re-parse: %v", err)
	}

	// The failed language's file must be absent, the sibling's present.
	frPath := strings.TrimSuffix(input, ".mp3") + "_french.srt"
	if _, err := os.Stat(frPath); !os.IsNotExist(err) {
		t.Error("failed translation must not leave an output file")
	}
	dePath := strings.TrimSuffix(input, ".mp3") + "_german.srt"
	if _, err := os.Stat(dePath); err != nil {
		t.Errorf("sibling translation should still be written: %v", err)
	}
}

func TestRun_SaveRaw(t *testing.T) {
	input := tempInput(t)
	model := &fakeModel{transcribeResp: validResponse}

	err := Run(context.Background(), model, Options{InputPath: input, SaveRaw: true})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	rawPath := strings.TrimSuffix(input, ".mp3") + ".raw.txt"
	data, err := os.ReadFile(rawPath)
	if err != nil {
		t.Fatalf("expected raw output file: %v", err)
	}
	if string(data) != validResponse {
		t.Error("raw file should contain the unmodified model response")
	}
}

func TestLanguagePath(t *testing.T) {
	tests := []struct {
		base     string
		language string
		want     string
	}{
		{"talk.srt", "English", "talk_english.srt"},
		{"talk.srt", "Traditional Chinese", "talk_traditional_chinese.srt"},
		{"/out/ep01.srt", "French", "/out/ep01_french.srt"},
	}

	for _, tt := range tests {
		if got := languagePath(tt.base, tt.language); got != tt.want {
			t.Errorf("languagePath(%q, %q) = %q, want %q", tt.base, tt.language, got, tt.want)
		}
	}
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.srt")

	if err := writeAtomic(path, "content\n"); err != nil {
		t.Fatalf("writeAtomic: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "content\n" {
		t.Errorf("content = %q", data)
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file in %s, found %d entries", dir, len(entries))
	}
}
