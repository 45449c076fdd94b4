package capture

import "fmt"

// DeviceError is a capture device that could not be opened.
type DeviceError struct {
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("capture: device %s: %v", e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }
