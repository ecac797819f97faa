package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Pass identifies which pipeline pass a model call belongs to.
type Pass string

const (
	PassTranscription Pass = "transcription"
	PassTranslation   Pass = "translation"
)

// ModelError wraps a failed model invocation with the pass it occurred in,
// so the orchestrator can tell a failed base pass from a failed translation.
type ModelError struct {
	Pass Pass
	Err  error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s pass: model call failed: %v", e.Pass, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// Options configures the client.
type Options struct {
	APIKey           string
	Model            string
	Temperature      float64
	MaxRetries       int
	MaxContinuations int
	RateLimitPerMin  int
}

// Client submits transcription and translation requests to the Gemini API.
type Client struct {
	genai   *genai.Client
	opts    Options
	limiter *rate.Limiter
}

// New creates a Client backed by the Gemini API.
func New(ctx context.Context, opts Options) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	// Rate limiter: tokens per second = RPM / 60.
	return &Client{
		genai:   gc,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(float64(opts.RateLimitPerMin)/60.0), 1),
	}, nil
}

// Transcribe uploads the audio file and requests a speaker-annotated SRT
// transcript, returning the raw model output.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := c.uploadAudio(ctx, audioPath)
	if err != nil {
		return "", &ModelError{Pass: PassTranscription, Err: err}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromURI(file.URI, file.MIMEType),
		}, genai.RoleUser),
	}

	text, err := c.generateComplete(ctx, contents)
	if err != nil {
		return "", &ModelError{Pass: PassTranscription, Err: err}
	}
	return text, nil
}

// Translate requests a translated SRT file using the already-produced
// transcript as context, returning the raw model output.
func (c *Client) Translate(ctx context.Context, transcript, language string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(translationPrompt(language)),
			genai.NewPartFromText(transcript),
		}, genai.RoleUser),
	}

	text, err := c.generateComplete(ctx, contents)
	if err != nil {
		return "", &ModelError{Pass: PassTranslation, Err: err}
	}
	return text, nil
}

// generateComplete issues a generate call and, when the response is cut off
// (token limit, safety filter), re-issues with a continuation prompt up to
// MaxContinuations times, concatenating the pieces.
func (c *Client) generateComplete(ctx context.Context, contents []*genai.Content) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr[float32](float32(c.opts.Temperature)),
	}

	var full strings.Builder
	continuations := 0
	for {
		resp, err := c.generateWithRetry(ctx, contents, cfg)
		if err != nil {
			return "", err
		}

		text := resp.Text()
		full.WriteString(text)

		reason := finishReason(resp)
		if !truncatedReasons[reason] || continuations >= c.opts.MaxContinuations {
			break
		}

		continuations++
		slog.Warn("model response truncated, requesting continuation",
			"finish_reason", reason, "attempt", continuations)
		contents = append(contents,
			genai.NewContentFromText(text, genai.RoleModel),
			genai.NewContentFromText(continuePrompt, genai.RoleUser),
		)
	}

	if continuations > 0 {
		slog.Info("response assembled from continuations", "pieces", continuations+1)
	}
	return full.String(), nil
}

// generateWithRetry wraps a generate call with bounded retry and
// exponential backoff for transient failures.
func (c *Client) generateWithRetry(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := c.genai.Models.GenerateContent(ctx, c.opts.Model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if attempt < c.opts.MaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second // 1s, 2s, 4s...
			slog.Warn("model call failed, retrying",
				"attempt", attempt+1, "backoff", backoff, "err", err)

			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", c.opts.MaxRetries, lastErr)
}

// truncatedReasons are the finish reasons after which a continuation prompt
// can recover the rest of the output.
var truncatedReasons = map[genai.FinishReason]bool{
	genai.FinishReasonMaxTokens:         true,
	genai.FinishReasonSafety:            true,
	genai.FinishReasonBlocklist:         true,
	genai.FinishReasonProhibitedContent: true,
}

func finishReason(resp *genai.GenerateContentResponse) genai.FinishReason {
	if len(resp.Candidates) == 0 {
		return ""
	}
	return resp.Candidates[0].FinishReason
}

// uploadAudio uploads the file and waits for server-side processing to
// finish; the file cannot be referenced in a request until it is ACTIVE.
func (c *Client) uploadAudio(ctx context.Context, path string) (*genai.File, error) {
	slog.Info("uploading audio file", "file", filepath.Base(path))

	file, err := c.genai.Files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
		MIMEType: mimeFromExt(filepath.Ext(path)),
	})
	if err != nil {
		return nil, fmt.Errorf("upload audio: %w", err)
	}

	for file.State == genai.FileStateProcessing {
		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		file, err = c.genai.Files.Get(ctx, file.Name, nil)
		if err != nil {
			return nil, fmt.Errorf("poll uploaded file: %w", err)
		}
	}
	if file.State == genai.FileStateFailed {
		return nil, fmt.Errorf("uploaded file %s failed server-side processing", file.Name)
	}

	slog.Info("audio file uploaded", "uri", file.URI, "mime", file.MIMEType)
	return file, nil
}

// mimeFromExt returns the MIME type for common audio extensions.
func mimeFromExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".mp3":
		return "audio/mp3"
	case ".m4a":
		return "audio/m4a"
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	case ".opus":
		return "audio/opus"
	case ".ac3":
		return "audio/ac3"
	default:
		return "application/octet-stream"
	}
}
