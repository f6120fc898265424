// Package preset persists named bundles of encoding options as JSON.
package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vidtool/internal/model"
)

// ErrNotFound is returned when a named preset does not exist.
var ErrNotFound = errors.New("preset not found")

const storeVersion = "1.0"

// Preset bundles encoding options with a human description.
type Preset struct {
	Description           string `json:"description,omitempty"`
	model.EncodingOptions `mapstructure:",squash"`
}

type storeFile struct {
	Version string            `json:"version"`
	Presets map[string]Preset `json:"presets"`
}

type exportFile struct {
	Preset exportBody `json:"vidtool_preset"`
}

type exportBody struct {
	Version  string `json:"version"`
	Name     string `json:"name"`
	Settings Preset `json:"settings"`
}

// Manager loads, mutates, and saves the preset store. Not safe for
// concurrent use; callers own a single instance per run.
type Manager struct {
	path    string
	presets map[string]Preset
}

// NewManager opens the store at path, seeding it with the default presets
// when the file does not exist yet. A corrupt store falls back to the
// defaults without overwriting the file.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		m.presets = Defaults()
		if err := m.save(); err != nil {
			return nil, err
		}
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("read presets: %w", err)
	}

	var sf storeFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}
	m.presets = sf.Presets
	if m.presets == nil {
		m.presets = map[string]Preset{}
	}
	return m, nil
}

func (m *Manager) save() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(storeFile{Version: storeVersion, Presets: m.presets}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, append(data, '\n'), 0o644)
}

// Names returns all preset names, sorted.
func (m *Manager) Names() []string {
	names := make([]string, 0, len(m.presets))
	for n := range m.presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the preset with the given name.
func (m *Manager) Get(name string) (Preset, error) {
	p, ok := m.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// Save stores a preset under name, replacing any existing one.
func (m *Manager) Save(name string, p Preset) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("preset name cannot be empty")
	}
	m.presets[name] = p
	return m.save()
}

// Delete removes the named preset.
func (m *Manager) Delete(name string) error {
	if _, ok := m.presets[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(m.presets, name)
	return m.save()
}

// Rename moves a preset to a new name. Renaming onto an existing preset
// is refused.
func (m *Manager) Rename(oldName, newName string) error {
	p, ok := m.presets[oldName]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, oldName)
	}
	if strings.TrimSpace(newName) == "" {
		return errors.New("new preset name cannot be empty")
	}
	if _, exists := m.presets[newName]; exists && newName != oldName {
		return fmt.Errorf("preset %q already exists", newName)
	}
	delete(m.presets, oldName)
	m.presets[newName] = p
	return m.save()
}

// Export writes a single preset to its own file.
func (m *Manager) Export(name, path string) error {
	p, ok := m.presets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	data, err := json.MarshalIndent(exportFile{Preset: exportBody{
		Version:  storeVersion,
		Name:     name,
		Settings: p,
	}}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Import reads a preset from an exported file and stores it, suffixing the
// name with " (n)" on collision. It returns the name used.
func (m *Manager) Import(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("import preset: %w", err)
	}
	var ef exportFile
	if err := json.Unmarshal(data, &ef); err != nil {
		return "", fmt.Errorf("import preset %s: %w", path, err)
	}
	if ef.Preset.Name == "" && ef.Preset.Version == "" {
		return "", fmt.Errorf("import preset %s: not a preset file", path)
	}

	name := ef.Preset.Name
	if name == "" {
		name = "Imported Preset"
	}
	base := name
	for counter := 1; ; counter++ {
		if _, exists := m.presets[name]; !exists {
			break
		}
		name = fmt.Sprintf("%s (%d)", base, counter)
	}

	m.presets[name] = ef.Preset.Settings
	if err := m.save(); err != nil {
		return "", err
	}
	return name, nil
}

// Defaults returns the built-in preset set.
func Defaults() map[string]Preset {
	return map[string]Preset{
		"H.265 High Quality": {
			Description: "High quality H.265 encoding with CRF 18",
			EncodingOptions: model.EncodingOptions{
				EncodeVideo:     true,
				VideoCodec:      "libx265",
				AudioCodec:      "copy",
				UseCRF:          true,
				CRFValue:        18,
				OutputExtension: ".mkv",
				OutputSuffix:    "_h265_hq",
				FixResolution:   true,
				NoData:          true,
				Subtitles:       model.SubtitlesAll,
			},
		},
		"H.265 Balanced": {
			Description: "Balanced H.265 encoding with CRF 23",
			EncodingOptions: model.EncodingOptions{
				EncodeVideo:     true,
				VideoCodec:      "libx265",
				AudioCodec:      "copy",
				UseCRF:          true,
				CRFValue:        23,
				OutputExtension: ".mkv",
				OutputSuffix:    "_h265",
				FixResolution:   true,
				NoData:          true,
				Subtitles:       model.SubtitlesAll,
			},
		},
		"H.265 Small Size": {
			Description: "Smaller file size H.265 encoding with CRF 28",
			EncodingOptions: model.EncodingOptions{
				EncodeVideo:     true,
				VideoCodec:      "libx265",
				AudioCodec:      "copy",
				UseCRF:          true,
				CRFValue:        28,
				OutputExtension: ".mkv",
				OutputSuffix:    "_small",
				FixResolution:   true,
				NoData:          true,
				Subtitles:       model.SubtitlesNone,
			},
		},
		"H.264 Compatible": {
			Description: "H.264 encoding for maximum compatibility",
			EncodingOptions: model.EncodingOptions{
				EncodeVideo:     true,
				VideoCodec:      "libx264",
				EncodeAudio:     true,
				AudioCodec:      "aac",
				UseCRF:          true,
				CRFValue:        23,
				OutputExtension: ".mp4",
				OutputSuffix:    "_h264",
				FixResolution:   true,
				NoData:          true,
				Subtitles:       model.SubtitlesAll,
			},
		},
		"Copy Video + Convert Audio": {
			Description: "Copy video stream, convert audio to AAC",
			EncodingOptions: model.EncodingOptions{
				VideoCodec:      "copy",
				EncodeAudio:     true,
				AudioCodec:      "aac",
				CRFValue:        23,
				OutputExtension: ".mkv",
				OutputSuffix:    "_audio_aac",
				NoData:          true,
				Subtitles:       model.SubtitlesAll,
			},
		},
		"Archive Quality": {
			Description: "Lossless/near-lossless archival quality",
			EncodingOptions: model.EncodingOptions{
				EncodeVideo:     true,
				VideoCodec:      "libx265",
				AudioCodec:      "copy",
				UseCRF:          true,
				CRFValue:        12,
				OutputExtension: ".mkv",
				OutputSuffix:    "_archive",
				Subtitles:       model.SubtitlesAll,
			},
		},
	}
}
