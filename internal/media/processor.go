// Package media wraps the ffmpeg operations used by the feedback loop:
// extracting the last frame of a clip and stitching clips together.
package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const manifestName = "concat_list.txt"

// ExtractLastFrame extracts the very last frame of a video as a PNG so the
// next iteration can be conditioned on it. The image is written next to the
// input file as <name>_last_frame.png and its path is returned.
func ExtractLastFrame(videoPath string) (string, error) {
	p := strings.TrimSpace(videoPath)
	if p == "" {
		return "", fmt.Errorf("video path is required")
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve video path %s: %w", p, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("video file %s: %w", abs, err)
	}

	pngPath := strings.TrimSuffix(abs, filepath.Ext(abs)) + "_last_frame.png"

	// -sseof -1 seeks to one second before the end, -update 1 makes ffmpeg
	// overwrite a single image instead of writing a numbered sequence.
	cmd := exec.Command("ffmpeg",
		"-sseof", "-1",
		"-i", abs,
		"-frames:v", "1",
		"-update", "1",
		"-f", "image2",
		"-y", pngPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg failed to extract the last frame: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return pngPath, nil
}

// StitchVideos concatenates the given videos into outputPath without
// re-encoding, using ffmpeg's concat demuxer. The manifest file it feeds to
// ffmpeg is removed on every exit path. An empty input list is not an error:
// it returns an empty path, signaling there was nothing to stitch.
func StitchVideos(videoPaths []string, outputPath string) (string, error) {
	if len(videoPaths) == 0 {
		return "", nil
	}
	if strings.TrimSpace(outputPath) == "" {
		return "", fmt.Errorf("output path is required")
	}
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return "", fmt.Errorf("resolve output path %s: %w", outputPath, err)
	}

	manifest := filepath.Join(filepath.Dir(absOut), manifestName)
	if err := writeManifest(manifest, videoPaths); err != nil {
		return "", err
	}
	defer func() {
		if _, err := os.Stat(manifest); err == nil {
			os.Remove(manifest)
		}
	}()

	cmd := exec.Command("ffmpeg",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		"-y", absOut,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg failed to stitch videos: %w: %s", err, strings.TrimSpace(string(output)))
	}

	return absOut, nil
}

// writeManifest writes the concat demuxer file list, one absolute path per
// line in playback order.
func writeManifest(path string, videoPaths []string) error {
	var b strings.Builder
	for _, v := range videoPaths {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("resolve video path %s: %w", v, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", abs)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat manifest: %w", err)
	}
	return nil
}
