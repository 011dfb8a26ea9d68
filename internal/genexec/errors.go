package genexec

import "errors"

var (
	// ErrGenerationFailed wraps a non-zero exit from the generation CLI.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationTimeout wraps a generation call that exceeded its timeout.
	ErrGenerationTimeout = errors.New("generation timed out")
)
