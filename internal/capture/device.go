package capture

import (
	"context"
	"errors"
	"image"
)

// Facing selects which camera a request prefers.
type Facing string

const (
	// FacingRear asks for the environment-facing camera of a handheld.
	FacingRear Facing = "environment"
	// FacingAny accepts whatever camera the device exposes.
	FacingAny Facing = ""
)

// Constraints describe the stream requested from a device.
type Constraints struct {
	Facing Facing
	Width  int
	Height int
}

// Device hands out live camera streams. Implementations report refused
// access with apperr.ErrPermissionDenied and missing hardware with
// apperr.ErrDeviceUnavailable.
type Device interface {
	Open(ctx context.Context, c Constraints) (Stream, error)
}

// Stream is a held camera feed. It must be closed to release the device.
type Stream interface {
	// Dimensions reports the real size of the feed, zero until the first
	// frame arrives.
	Dimensions() (width, height int)
	// Frame returns the current frame.
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// ErrStreamClosed is returned by streams used after Close.
var ErrStreamClosed = errors.New("stream closed")
