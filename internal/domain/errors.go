package domain

import (
	"errors"
	"fmt"
)

// Ошибки конвертации. Все терминальные, повторов нет.
var (
	ErrUnrecognizedFormat   = errors.New("didn't recognize file extension / format")
	ErrUnsupportedContainer = errors.New("rename your KMZ file to ZIP, and extract out the KML file")
	ErrSourceNotFound       = errors.New("source file does not exist")
	ErrCopyFailed           = errors.New("copy failed")
	ErrStageFailed          = errors.New("conversion stage failed")
	ErrSerialization        = errors.New("geo data could not be serialized")
)

// StageError ошибка промежуточного этапа конвертации.
// errors.Is(err, ErrStageFailed) истинно, причина доступна через Unwrap.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func (e *StageError) Is(target error) bool {
	return target == ErrStageFailed
}

// IsConversionError проверяет, относится ли ошибка к таксономии конвертации
func IsConversionError(err error) bool {
	return errors.Is(err, ErrUnrecognizedFormat) ||
		errors.Is(err, ErrUnsupportedContainer) ||
		errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrCopyFailed) ||
		errors.Is(err, ErrStageFailed) ||
		errors.Is(err, ErrSerialization)
}
