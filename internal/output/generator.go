// Package output computes collision-safe output paths for encode jobs.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"vidtool/internal/model"
	"vidtool/internal/probe"
)

// Policy governs what happens when a computed output path already exists.
type Policy string

const (
	PolicySkip      Policy = "skip"      // caller checks existence and skips
	PolicyOverwrite Policy = "overwrite" // hand the path back unchanged
	PolicyIncrement Policy = "increment" // probe for a free _NNN name
)

// ErrInvalidPolicy is returned for an unrecognized overwrite policy name.
var ErrInvalidPolicy = errors.New("overwrite policy must be 'skip', 'overwrite', or 'increment'")

// ErrTooManyCollisions is returned when the increment policy exhausts 999
// candidate names.
var ErrTooManyCollisions = errors.New("too many existing files with similar names")

const maxIncrement = 999

// invalidFilenameChars are replaced with underscores in resolved filenames.
const invalidFilenameChars = `<>:"/\|?*`

// Generator deterministically computes a final output path for one input
// file given encoding context. Generation is a pure function of its inputs
// and configuration, except the increment policy's filesystem probe. The
// generator never creates or mutates files.
type Generator struct {
	outputDirectory      string // empty = same directory as input
	subdirectoryPattern  string
	filenamePattern      string
	suffix               string
	extension            string
	includeResolution    bool
	includeCodec         bool
	includeDate          bool
	includeQuality       bool
	preserveDirStructure bool
	sourceRoot           string
	policy               Policy

	now func() time.Time
}

// New returns a Generator with the default naming scheme: same directory as
// input, "{stem}{suffix}{extension}" with an "_encoded" suffix and ".mkv"
// extension, skip policy.
func New() *Generator {
	return &Generator{
		filenamePattern:      "{stem}{suffix}{extension}",
		suffix:               "_encoded",
		extension:            ".mkv",
		preserveDirStructure: true,
		policy:               PolicySkip,
		now:                  time.Now,
	}
}

// SetOutputDirectory overrides the destination directory. Empty means "same
// directory as input".
func (g *Generator) SetOutputDirectory(dir string) {
	g.outputDirectory = dir
}

// SetSourceRoot sets the root against which input paths are made relative
// when mirroring directory structure into a custom output directory.
func (g *Generator) SetSourceRoot(root string) {
	g.sourceRoot = root
}

// SetPreserveDirectoryStructure controls whether inputs below the source
// root keep their relative subtree under the output directory.
func (g *Generator) SetPreserveDirectoryStructure(preserve bool) {
	g.preserveDirStructure = preserve
}

// SetSubdirectoryPattern sets a template appended under the output directory.
// The pattern may itself contain placeholders, e.g. "{codec}" or "{date}".
// Empty means no subdirectory.
func (g *Generator) SetSubdirectoryPattern(pattern string) {
	g.subdirectoryPattern = pattern
}

// SetFilenamePattern sets the template used to build the final filename.
// Recognized placeholders: {stem} {suffix} {extension} {date} {time}
// {resolution} {width} {height} {duration} {size_mb} {codec} {quality}.
// Unresolved placeholders are left as literal text.
func (g *Generator) SetFilenamePattern(pattern string) {
	g.filenamePattern = pattern
}

// SetNamingOptions configures the base suffix, output extension, and which
// descriptive tokens are appended to the suffix automatically.
func (g *Generator) SetNamingOptions(suffix, extension string, includeResolution, includeCodec, includeQuality, includeDate bool) {
	g.suffix = suffix
	g.extension = extension
	g.includeResolution = includeResolution
	g.includeCodec = includeCodec
	g.includeQuality = includeQuality
	g.includeDate = includeDate
}

// SetOverwritePolicy sets how existing files are handled.
func (g *Generator) SetOverwritePolicy(policy string) error {
	switch Policy(policy) {
	case PolicySkip, PolicyOverwrite, PolicyIncrement:
		g.policy = Policy(policy)
		return nil
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidPolicy, policy)
	}
}

// Policy returns the configured overwrite policy.
func (g *Generator) Policy() Policy { return g.policy }

// Suffix returns the configured base suffix.
func (g *Generator) Suffix() string { return g.suffix }

// Extension returns the configured output extension.
func (g *Generator) Extension() string { return g.extension }

// Generate computes the output path for inputPath. info and opts may be nil;
// placeholders depending on them then stay literal.
func (g *Generator) Generate(inputPath string, info *probe.Info, opts *model.EncodingOptions) (string, error) {
	baseDir := g.baseDir(inputPath)

	if g.subdirectoryPattern != "" {
		subdir := g.resolvePattern(g.subdirectoryPattern, inputPath, info, opts, g.suffix)
		baseDir = filepath.Join(baseDir, subdir)
	}

	filename := g.resolvePattern(g.filenamePattern, inputPath, info, opts, g.dynamicSuffix(info, opts))
	candidate := filepath.Join(baseDir, filename)

	return g.applyPolicy(candidate)
}

func (g *Generator) baseDir(inputPath string) string {
	if g.outputDirectory == "" {
		return filepath.Dir(inputPath)
	}
	if g.preserveDirStructure && g.sourceRoot != "" {
		rel, err := filepath.Rel(g.sourceRoot, filepath.Dir(inputPath))
		if err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			return filepath.Join(g.outputDirectory, rel)
		}
	}
	return g.outputDirectory
}

// dynamicSuffix assembles the base suffix plus any enabled descriptive
// tokens, joined with underscores and guaranteed to start with one.
func (g *Generator) dynamicSuffix(info *probe.Info, opts *model.EncodingOptions) string {
	var parts []string
	if g.suffix != "" {
		parts = append(parts, g.suffix)
	}

	if g.includeResolution && info != nil {
		w, h := info.MaxDimensions()
		// fix_resolution rounds odd dimensions down to even, so the
		// suffix must name what the encode actually produces.
		if opts != nil && opts.FixResolution {
			w -= w % 2
			h -= h % 2
		}
		parts = append(parts, fmt.Sprintf("%dx%d", w, h))
	}

	if g.includeCodec && opts != nil && opts.VideoCodec != "" && opts.VideoCodec != "copy" {
		parts = append(parts, cleanCodec(opts.VideoCodec))
	}

	if g.includeQuality && opts != nil && opts.UseCRF {
		parts = append(parts, "crf"+strconv.Itoa(opts.CRFValue))
	}

	if g.includeDate {
		parts = append(parts, g.now().Format("20060102"))
	}

	combined := strings.Join(parts, "_")
	if combined != "" && !strings.HasPrefix(combined, "_") {
		combined = "_" + combined
	}
	return combined
}

// cleanCodec strips the lib prefix and underscores from an encoder name, so
// "libx265" becomes "x265".
func cleanCodec(codec string) string {
	codec = strings.TrimPrefix(codec, "lib")
	return strings.ReplaceAll(codec, "_", "")
}

func (g *Generator) resolvePattern(pattern, inputPath string, info *probe.Info, opts *model.EncodingOptions, resolvedSuffix string) string {
	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	now := g.now()

	replacements := [][2]string{
		{"{stem}", stem},
		{"{suffix}", resolvedSuffix},
		{"{extension}", g.extension},
		{"{date}", now.Format("2006-01-02")},
		{"{time}", now.Format("150405")},
	}

	if info != nil {
		w, h := info.MaxDimensions()
		replacements = append(replacements,
			[2]string{"{resolution}", fmt.Sprintf("%dx%d", w, h)},
			[2]string{"{width}", strconv.Itoa(w)},
			[2]string{"{height}", strconv.Itoa(h)},
			[2]string{"{duration}", strconv.Itoa(int(info.DurationSeconds()))},
			[2]string{"{size_mb}", strconv.FormatInt(info.SizeMB(), 10)},
		)
	}

	if opts != nil {
		replacements = append(replacements,
			[2]string{"{codec}", opts.VideoCodec},
			[2]string{"{quality}", strconv.Itoa(opts.CRFValue)},
		)
	}

	result := pattern
	for _, r := range replacements {
		result = strings.ReplaceAll(result, r[0], r[1])
	}

	return stripInvalidChars(result)
}

func stripInvalidChars(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if strings.ContainsRune(invalidFilenameChars, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// applyPolicy resolves the candidate against the current filesystem state.
func (g *Generator) applyPolicy(candidate string) (string, error) {
	if g.policy != PolicyIncrement {
		return candidate, nil
	}
	if !exists(candidate) {
		return candidate, nil
	}

	dir := filepath.Dir(candidate)
	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(filepath.Base(candidate), ext)

	for counter := 1; counter <= maxIncrement; counter++ {
		next := filepath.Join(dir, fmt.Sprintf("%s_%03d%s", stem, counter, ext))
		if !exists(next) {
			return next, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrTooManyCollisions, candidate)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// PreviewEntry pairs an input with its would-be output.
type PreviewEntry struct {
	Input  string
	Output string
	Exists bool
	Err    error
}

// Preview resolves output paths for a list of inputs without creating
// anything. probeFn may be nil when no placeholder needs metadata.
func (g *Generator) Preview(inputs []string, opts *model.EncodingOptions, infoFor func(string) *probe.Info) []PreviewEntry {
	entries := make([]PreviewEntry, 0, len(inputs))
	for _, in := range inputs {
		var info *probe.Info
		if infoFor != nil {
			info = infoFor(in)
		}
		out, err := g.Generate(in, info, opts)
		entries = append(entries, PreviewEntry{
			Input:  in,
			Output: out,
			Exists: err == nil && exists(out),
			Err:    err,
		})
	}
	return entries
}
