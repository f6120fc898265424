// Package deps locates the external ffmpeg tool suite.
package deps

import (
	"fmt"
	"os"
	"os/exec"
)

// Find resolves a tool binary. If customPath is non-empty it is tried as a
// filesystem path first, then as a PATH lookup; otherwise name is looked up
// in PATH.
func Find(name, customPath string) (string, error) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			return customPath, nil
		}
		if p, err := exec.LookPath(customPath); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("could not find %s at %q", name, customPath)
	}
	if p, err := exec.LookPath(name); err == nil {
		return p, nil
	}
	return "", fmt.Errorf("could not find %s in PATH. Please install ffmpeg.", name)
}

// FindFFmpeg returns the path to the ffmpeg binary.
func FindFFmpeg(customPath string) (string, error) {
	return Find("ffmpeg", customPath)
}

// FindFFprobe returns the path to the ffprobe binary.
func FindFFprobe(customPath string) (string, error) {
	return Find("ffprobe", customPath)
}

// FindFFplay returns the path to the ffplay binary.
func FindFFplay(customPath string) (string, error) {
	return Find("ffplay", customPath)
}
