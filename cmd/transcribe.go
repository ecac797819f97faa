package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Kajaqq/SmartSubs/internal/config"
	"github.com/Kajaqq/SmartSubs/internal/gemini"
	"github.com/Kajaqq/SmartSubs/internal/media"
	"github.com/Kajaqq/SmartSubs/internal/srt"
	"github.com/Kajaqq/SmartSubs/internal/worker"

	"github.com/spf13/cobra"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <input-file>",
	Short: "Transcribe audio/video to SRT subtitles",
	Long: `Transcribe an audio or video file into a speaker-annotated SRT subtitle
file using the Gemini API. Translation into the target language(s) is
enabled by default; disable it with --no-translate.`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

var (
	languages   []string
	noTranslate bool
	output      string
	strict      bool
	saveRaw     bool
	timeout     time.Duration

	// Model tuning flags.
	modelName        string
	temperature      float64
	maxRetries       int
	maxContinuations int
	rateLimit        int
	minDurationMS    int
)

func init() {
	defaults := config.Default()

	transcribeCmd.Flags().StringSliceVarP(&languages, "language", "l", []string{"English"}, "target language(s) for translation")
	transcribeCmd.Flags().BoolVarP(&noTranslate, "no-translate", "n", false, "disable the translation pass")
	transcribeCmd.Flags().StringVarP(&output, "output", "o", "", "output SRT path (default: <input>.srt)")
	transcribeCmd.Flags().BoolVar(&strict, "strict", false, "drop malformed records instead of repairing them")
	transcribeCmd.Flags().BoolVar(&saveRaw, "save-raw", false, "save raw model responses alongside the SRT files")
	transcribeCmd.Flags().DurationVar(&timeout, "timeout", 0, "overall deadline for the run (0 = none)")

	// Model tuning flags.
	transcribeCmd.Flags().StringVar(&modelName, "model", defaults.ModelName, "Gemini model name")
	transcribeCmd.Flags().Float64Var(&temperature, "temperature", defaults.Temperature, "model sampling temperature")
	transcribeCmd.Flags().IntVar(&maxRetries, "max-retries", defaults.MaxRetries, "max retries per model call")
	transcribeCmd.Flags().IntVar(&maxContinuations, "max-continuations", defaults.MaxContinuations, "max continuation requests for truncated responses")
	transcribeCmd.Flags().IntVar(&rateLimit, "rate-limit", defaults.APIRateLimitPerMin, "API requests per minute")
	transcribeCmd.Flags().IntVar(&minDurationMS, "min-duration", int(defaults.MinEntryDuration/time.Millisecond), "repair floor for entry durations in milliseconds")

	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	// Resolve to absolute path.
	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", inputPath)
	}

	// Validate file extension before touching the network.
	ext := strings.ToLower(filepath.Ext(absPath))
	if !media.IsAudioExtension(ext) && !media.IsVideoExtension(ext) {
		return fmt.Errorf("%w: %s", media.ErrUnsupportedFormat, ext)
	}

	apiKey, err := config.APIKey()
	if err != nil {
		return err
	}

	// Setup signal handling for graceful cancellation.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	model, err := gemini.New(ctx, gemini.Options{
		APIKey:           apiKey,
		Model:            modelName,
		Temperature:      temperature,
		MaxRetries:       maxRetries,
		MaxContinuations: maxContinuations,
		RateLimitPerMin:  rateLimit,
	})
	if err != nil {
		return err
	}

	mode := srt.ModeLenient
	if strict {
		mode = srt.ModeStrict
	}

	targets := languages
	if noTranslate {
		targets = nil
	}

	opts := worker.Options{
		InputPath:   absPath,
		OutputPath:  output,
		Languages:   targets,
		ParseMode:   mode,
		MinDuration: time.Duration(minDurationMS) * time.Millisecond,
		MaxParallel: config.Default().MaxTranslationJobs,
		SaveRaw:     saveRaw,
	}

	if err := worker.Run(ctx, model, opts); err != nil {
		return err
	}

	if !quiet {
		slog.Info("done")
	}
	return nil
}
