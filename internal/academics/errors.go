package academics

import "errors"

// Invariant violations are surfaced where they are checked, never later as
// a corrupted downstream number. A subject with no marks is not an error:
// Normalize reports it through its ok return instead.
var (
	ErrInvalidPercentage          = errors.New("percentage out of range")
	ErrUnknownSystem              = errors.New("unknown grading system")
	ErrInvalidCompositeDefinition = errors.New("invalid composite subject definition")
	ErrInvalidMarkScale           = errors.New("invalid mark scale")
	ErrInvalidScale               = errors.New("invalid grading scale")
)
