package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Kajaqq/SmartSubs/internal/media"
	"github.com/Kajaqq/SmartSubs/internal/srt"

	"golang.org/x/sync/errgroup"
)

// Model is the narrow interface to the external transcription model. Both
// methods return the raw model output for the parser to structure.
type Model interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
	Translate(ctx context.Context, transcript, language string) (string, error)
}

// Options configures a run.
type Options struct {
	InputPath   string
	OutputPath  string        // default: <input>.srt
	Languages   []string      // translation targets; empty disables translation
	ParseMode   srt.Mode      // repair policy for model output
	MinDuration time.Duration // repair floor for non-positive durations
	MaxParallel int           // concurrent translation passes
	SaveRaw     bool          // persist raw model responses alongside output
}

// PartialError reports a run where the base subtitles were written but one
// or more translation passes failed.
type PartialError struct {
	BasePath string
	Failures map[string]error
}

func (e *PartialError) Error() string {
	langs := make([]string, 0, len(e.Failures))
	for lang := range e.Failures {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return fmt.Sprintf("partial success: %s was written, but translation failed for: %s",
		e.BasePath, strings.Join(langs, ", "))
}

// Run executes the pipeline end to end: resolve media, transcribe, parse,
// serialize, write, then run any translation passes. Translation failures
// never touch the already-written base file.
func Run(ctx context.Context, model Model, opts Options) error {
	src, err := media.Resolve(ctx, opts.InputPath)
	if err != nil {
		return err
	}
	defer src.Cleanup()

	media.LogInfo(ctx, src.AudioPath)

	outputSRT := opts.OutputPath
	if outputSRT == "" {
		outputSRT = strings.TrimSuffix(opts.InputPath, filepath.Ext(opts.InputPath)) + ".srt"
	}

	slog.Info("starting transcription", "input", filepath.Base(opts.InputPath))
	raw, err := model.Transcribe(ctx, src.AudioPath)
	if err != nil {
		return err
	}
	if opts.SaveRaw {
		saveRaw(outputSRT, raw)
	}

	doc, err := srt.Parse(raw, srt.Options{Mode: opts.ParseMode, MinDuration: opts.MinDuration})
	if err != nil {
		return fmt.Errorf("transcription pass: %w", err)
	}

	rendered := srt.Render(doc)
	if err := writeAtomic(outputSRT, rendered); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	slog.Info("subtitles saved", "path", outputSRT, "entries", len(doc.Entries))

	if len(opts.Languages) == 0 {
		return nil
	}

	failures := translateAll(ctx, model, rendered, outputSRT, opts)
	if len(failures) > 0 {
		return &PartialError{BasePath: outputSRT, Failures: failures}
	}
	return nil
}

// translateAll runs one pass per target language with bounded parallelism.
// Failures are collected per language rather than cancelling sibling passes.
func translateAll(ctx context.Context, model Model, transcript, baseSRT string, opts Options) map[string]error {
	limit := opts.MaxParallel
	if limit < 1 {
		limit = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)

	var mu sync.Mutex
	failures := make(map[string]error)

	for _, lang := range opts.Languages {
		g.Go(func() error {
			if err := translateOne(ctx, model, transcript, baseSRT, lang, opts); err != nil {
				slog.Error("translation pass failed", "language", lang, "err", err)
				mu.Lock()
				failures[lang] = err
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait()

	return failures
}

func translateOne(ctx context.Context, model Model, transcript, baseSRT, language string, opts Options) error {
	outputPath := languagePath(baseSRT, language)
	slog.Info("starting translation", "language", language)

	raw, err := model.Translate(ctx, transcript, language)
	if err != nil {
		return err
	}
	if opts.SaveRaw {
		saveRaw(outputPath, raw)
	}

	doc, err := srt.Parse(raw, srt.Options{Mode: opts.ParseMode, MinDuration: opts.MinDuration})
	if err != nil {
		return fmt.Errorf("translation pass: %w", err)
	}

	if err := writeAtomic(outputPath, srt.Render(doc)); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	slog.Info("translated subtitles saved", "path", outputPath, "entries", len(doc.Entries))
	return nil
}

// languagePath derives the translated-output path from the base SRT path:
// "talk.srt" + "Traditional Chinese" -> "talk_traditional_chinese.srt".
func languagePath(basePath, language string) string {
	suffix := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(language), " ", "_"))
	ext := filepath.Ext(basePath)
	return strings.TrimSuffix(basePath, ext) + "_" + suffix + ext
}

// writeAtomic writes content through a temp file in the target directory and
// renames it into place, so a crash mid-write cannot leave a partial file.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// saveRaw persists a raw model response next to the subtitle file it
// produced, for offline diagnostics. Failures are logged, never fatal.
func saveRaw(srtPath, raw string) {
	rawPath := strings.TrimSuffix(srtPath, filepath.Ext(srtPath)) + ".raw.txt"
	if err := os.WriteFile(rawPath, []byte(raw), 0644); err != nil {
		slog.Warn("failed to save raw model output", "path", rawPath, "err", err)
		return
	}
	slog.Info("raw model output saved", "path", rawPath)
}
