package check

import "codeberg.org/mutker/lmsensors2/internal/errors"

const (
	ErrUnsupportedOption = errors.ErrUnsupportedOption
	ErrInvalidLevels     = errors.ErrInvalidLevels
	ErrUnknownPlugin     = errors.ErrUnknownPlugin
)
