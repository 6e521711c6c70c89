package qoi

import (
	"errors"
	"fmt"
)

// The codec reports three kinds of failure. Every error returned by this
// package matches exactly one of ErrFormat, ErrUnsupported or
// ErrInconsistentGrid with errors.Is.
var (
	// ErrFormat marks input bytes that are not a well-formed QOI file.
	ErrFormat = errors.New("qoi: format error")
	// ErrUnsupported marks input the format cannot represent.
	ErrUnsupported = errors.New("qoi: unsupported input")
	// ErrInconsistentGrid marks a grid or descriptor violating its own invariants.
	ErrInconsistentGrid = errors.New("qoi: inconsistent grid")

	ErrBadMagic        = fmt.Errorf("%w: bad magic value", ErrFormat)
	ErrBadTrailer      = fmt.Errorf("%w: bad trailer", ErrFormat)
	ErrBadHeader       = fmt.Errorf("%w: bad header", ErrFormat)
	ErrTruncatedStream = fmt.Errorf("%w: truncated stream", ErrFormat)
	ErrImageTooLarge   = fmt.Errorf("%w: image too large", ErrFormat)

	ErrUnsupportedChannels = fmt.Errorf("%w: channel count must be 3 or 4", ErrUnsupported)
)
