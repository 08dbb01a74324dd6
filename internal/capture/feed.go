package capture

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/mamadbah2/avicola/internal/apperr"
)

// FeedDevice is a Device whose frames are pushed by a remote scale terminal
// instead of read from local hardware. Only one stream is open at a time.
type FeedDevice struct {
	mu      sync.Mutex
	hasRear bool
	denied  bool
	current *feedStream
}

// NewFeedDevice describes a terminal. hasRear reports whether it exposes an
// environment-facing camera.
func NewFeedDevice(hasRear bool) *FeedDevice {
	return &FeedDevice{hasRear: hasRear}
}

// Deny makes subsequent Open calls fail with a permission error, mirroring an
// operator refusing camera access on the terminal.
func (d *FeedDevice) Deny() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.denied = true
}

// Open implements Device.
func (d *FeedDevice) Open(ctx context.Context, c Constraints) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.denied:
		return nil, fmt.Errorf("terminal refused camera access: %w", apperr.ErrPermissionDenied)
	case c.Facing == FacingRear && !d.hasRear:
		return nil, fmt.Errorf("terminal has no rear camera: %w", apperr.ErrDeviceUnavailable)
	case d.current != nil && !d.current.isClosed():
		return nil, fmt.Errorf("terminal camera already in use: %w", apperr.ErrDeviceUnavailable)
	}

	d.current = &feedStream{}
	return d.current, nil
}

// Push delivers a frame to the open stream.
func (d *FeedDevice) Push(frame image.Image) error {
	d.mu.Lock()
	stream := d.current
	d.mu.Unlock()

	if stream == nil {
		return ErrStreamClosed
	}
	return stream.push(frame)
}

// Held reports whether a stream is currently open.
func (d *FeedDevice) Held() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current != nil && !d.current.isClosed()
}

type feedStream struct {
	mu     sync.Mutex
	frame  image.Image
	closed bool
}

func (s *feedStream) push(frame image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.frame = frame
	return nil
}

func (s *feedStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *feedStream) Dimensions() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frame == nil {
		return 0, 0
	}
	b := s.frame.Bounds()
	return b.Dx(), b.Dy()
}

func (s *feedStream) Frame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.frame == nil {
		return nil, ErrFeedNotReady
	}
	return s.frame, nil
}

func (s *feedStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.frame = nil
	return nil
}
