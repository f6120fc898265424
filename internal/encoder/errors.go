package encoder

import "errors"

var (
	// ErrInputNotFound is returned when an input path does not exist.
	ErrInputNotFound = errors.New("input file not found")

	// ErrNotAFile is returned when an input path is not a regular file.
	ErrNotAFile = errors.New("input is not a regular file")

	// ErrOutputNotProduced is returned when ffmpeg exits successfully but
	// the output file is missing or empty.
	ErrOutputNotProduced = errors.New("encoder reported success but output is missing or empty")
)
