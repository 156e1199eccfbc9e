package visual

import (
	"errors"
	"fmt"

	"github.com/gxtest/uitest/pkg/core"
)

var (
	// ErrInvalidURL is returned when no service address is configured or an
	// endpoint cannot be formed from it.
	ErrInvalidURL = errors.New("visual testing server URL is not valid")

	// ErrFailedToUploadImage is returned when the captured image could not be
	// stored as an object on the service.
	ErrFailedToUploadImage = errors.New("failed to upload image")

	// ErrSerialize is returned when request parameters cannot be encoded or a
	// returned image URL is unusable.
	ErrSerialize = errors.New("could not serialize parameters")
)

// NetworkError is a transport failure or a response outside [200, 300).
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("visual testing server returned HTTP %d for %s", e.StatusCode, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("visual testing request to %s failed: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("visual testing request to %s failed", e.URL)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, core.ErrNetwork) hold for every NetworkError.
func (e *NetworkError) Is(target error) bool {
	return errors.Is(core.ErrNetwork, target)
}
