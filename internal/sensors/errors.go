package sensors

import "codeberg.org/mutker/lmsensors2/internal/errors"

const (
	// ErrParse is returned when the section is not a JSON object of chip objects.
	ErrParse = errors.ErrParse
	// ErrKeyMissing is returned when a chip lacks its "Adapter" key.
	ErrKeyMissing = errors.ErrKeyMissing
)
