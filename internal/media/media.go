package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnsupportedFormat is returned for inputs that are neither a recognized
// audio nor video format.
var ErrUnsupportedFormat = errors.New("unsupported media format")

var audioExts = map[string]bool{
	".mp3": true, ".m4a": true, ".wav": true, ".flac": true,
	".ogg": true, ".aac": true, ".opus": true, ".ac3": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true,
	".flv": true, ".webm": true,
}

// codecContainers maps an audio codec name to a container extension that can
// hold the stream without re-encoding.
var codecContainers = map[string]string{
	"aac":       ".aac",
	"mp3":       ".mp3",
	"ac3":       ".ac3",
	"opus":      ".opus",
	"vorbis":    ".ogg",
	"flac":      ".flac",
	"pcm_s16le": ".wav",
}

// Source is a usable audio stream reference for the model collaborator.
type Source struct {
	AudioPath string
	temp      bool
}

// Cleanup removes the extracted temp audio file, if any.
func (s *Source) Cleanup() {
	if !s.temp {
		return
	}
	if err := os.Remove(s.AudioPath); err != nil && !os.IsNotExist(err) {
		slog.Debug("cleanup temp audio", "file", filepath.Base(s.AudioPath), "err", err)
	}
}

// IsAudioExtension returns true for recognized audio file extensions.
func IsAudioExtension(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsVideoExtension returns true for recognized video file extensions.
func IsVideoExtension(ext string) bool {
	return videoExts[strings.ToLower(ext)]
}

// ContainerForCodec returns the container extension for an audio codec,
// defaulting to .m4a for codecs without a dedicated container.
func ContainerForCodec(codec string) string {
	if ext, ok := codecContainers[codec]; ok {
		return ext
	}
	return ".m4a"
}

// Available returns true if ffmpeg is on the PATH.
func Available() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// Resolve classifies the input file and produces an audio stream reference,
// extracting the audio track first when the input is a video container.
func Resolve(ctx context.Context, path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case audioExts[ext]:
		return &Source{AudioPath: path}, nil
	case videoExts[ext]:
		return extractToTemp(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func extractToTemp(ctx context.Context, videoPath string) (*Source, error) {
	if !Available() {
		return nil, fmt.Errorf("video input %s requires ffmpeg on the PATH", filepath.Base(videoPath))
	}

	codec, err := AudioCodec(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(videoPath)
	base := strings.TrimSuffix(filepath.Base(videoPath), ext)
	audioPath := filepath.Join(filepath.Dir(videoPath), "temp_audio_"+base+ContainerForCodec(codec))

	slog.Info("video detected, extracting audio",
		"input", filepath.Base(videoPath), "codec", codec, "output", filepath.Base(audioPath))

	cmd := exec.CommandContext(ctx,
		"ffmpeg", "-i", videoPath,
		"-vn", "-c:a", "copy", "-y",
		audioPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg extract audio failed: %w\n%s", err, string(out))
	}

	return &Source{AudioPath: audioPath, temp: true}, nil
}

// probeOutput mirrors ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Info holds duration and codec information from ffprobe.
type Info struct {
	Duration float64
	Codec    string
}

// Probe uses ffprobe to get the duration and codec of the first audio stream.
func Probe(ctx context.Context, path string) (*Info, error) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=codec_name:format=duration",
		"-of", "json",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	dur, _ := strconv.ParseFloat(probe.Format.Duration, 64)

	codec := "N/A"
	if len(probe.Streams) > 0 && probe.Streams[0].CodecName != "" {
		codec = probe.Streams[0].CodecName
	}

	return &Info{Duration: dur, Codec: codec}, nil
}

// AudioCodec returns the codec name of the first audio stream.
func AudioCodec(ctx context.Context, path string) (string, error) {
	info, err := Probe(ctx, path)
	if err != nil {
		return "", err
	}
	if info.Codec == "" || info.Codec == "N/A" {
		return "", fmt.Errorf("no audio stream found in %s", filepath.Base(path))
	}
	return info.Codec, nil
}

// LogInfo logs file size and media information. Probe failures are
// non-fatal; the upload proceeds without duration metadata.
func LogInfo(ctx context.Context, path string) {
	stat, err := os.Stat(path)
	if err != nil {
		slog.Warn("cannot stat file", "path", path, "err", err)
		return
	}

	sizeMB := float64(stat.Size()) / (1024 * 1024)
	msg := fmt.Sprintf("file size: %.2f MB", sizeMB)

	if info, err := Probe(ctx, path); err == nil && info != nil {
		minutes := int(info.Duration) / 60
		seconds := int(info.Duration) % 60
		msg += fmt.Sprintf(" | duration: %02d:%02d | codec: %s", minutes, seconds, info.Codec)
	}

	slog.Info(msg)
}
