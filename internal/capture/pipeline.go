// Package capture governs acquisition of the scale photo that must back every
// weighing record.
//
// A Pipeline owns at most one device stream at a time and moves through
// idle → streaming → preview. The stream is released as soon as a still
// frame exists, on cancel, and on Close, whichever comes first.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
)

// State is the acquisition state of a Pipeline.
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StatePreview   State = "preview"
)

// DefaultQuality is the JPEG quality used for captured frames.
const DefaultQuality = 85

var (
	// ErrBusy is returned when a request arrives while the pipeline is not idle.
	ErrBusy = errors.New("capture pipeline busy")
	// ErrNotStreaming is returned by Capture and Cancel outside streaming.
	ErrNotStreaming = errors.New("capture pipeline not streaming")
	// ErrFeedNotReady is returned when the feed has not produced a real frame yet.
	ErrFeedNotReady = errors.New("camera feed not ready")
	// ErrNoPreview is returned by Retake outside preview.
	ErrNoPreview = errors.New("no captured photo to discard")
	// ErrClosed is returned once the pipeline has been torn down.
	ErrClosed = errors.New("capture pipeline closed")
)

// FailureReason classifies why a request could not obtain a device.
type FailureReason string

const (
	ReasonPermissionDenied  FailureReason = "permission-denied"
	ReasonDeviceUnavailable FailureReason = "device-unavailable"
	ReasonOther             FailureReason = "other"
)

// Failure is the typed error attached to the pipeline after a failed request.
type Failure struct {
	Reason FailureReason
	Err    error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("camera request failed (%s): %v", f.Reason, f.Err)
}

// Unwrap exposes both the matching apperr kind and the device error.
func (f *Failure) Unwrap() []error {
	switch f.Reason {
	case ReasonPermissionDenied:
		return []error{apperr.ErrPermissionDenied, f.Err}
	case ReasonDeviceUnavailable:
		return []error{apperr.ErrDeviceUnavailable, f.Err}
	default:
		return []error{f.Err}
	}
}

func classify(err error) FailureReason {
	switch {
	case errors.Is(err, apperr.ErrPermissionDenied):
		return ReasonPermissionDenied
	case errors.Is(err, apperr.ErrDeviceUnavailable):
		return ReasonDeviceUnavailable
	default:
		return ReasonOther
	}
}

// Payload is an encoded still frame.
type Payload struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
	CapturedAt  time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithQuality overrides the JPEG quality (1-100).
func WithQuality(q int) Option {
	return func(p *Pipeline) {
		if q >= 1 && q <= 100 {
			p.quality = q
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithOnCapture registers a callback receiving the payload on capture and nil
// on retake.
func WithOnCapture(fn func(*Payload)) Option {
	return func(p *Pipeline) { p.onCapture = fn }
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline is the capture state machine. It is safe for concurrent use, but
// only one acquisition may be in flight.
type Pipeline struct {
	mu         sync.Mutex
	device     Device
	state      State
	stream     Stream
	payload    *Payload
	failure    *Failure
	requesting bool
	closed     bool

	quality   int
	onCapture func(*Payload)
	now       func() time.Time
	logger    *zap.Logger
}

// NewPipeline builds an idle pipeline on top of device.
func NewPipeline(device Device, opts ...Option) *Pipeline {
	p := &Pipeline{
		device:  device,
		state:   StateIdle,
		quality: DefaultQuality,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// LastFailure returns the reason attached by the last failed request, if any.
func (p *Pipeline) LastFailure() *Failure {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.failure
}

// Payload returns the captured photo while in preview.
func (p *Pipeline) Payload() (*Payload, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePreview || p.payload == nil {
		return nil, false
	}
	return p.payload, true
}

// Evidence returns the captured photo or apperr.ErrPreconditionFailed.
func (p *Pipeline) Evidence() (*Payload, error) {
	payload, ok := p.Payload()
	if !ok {
		return nil, fmt.Errorf("scale photo required: %w", apperr.ErrPreconditionFailed)
	}
	return payload, nil
}

// Request acquires a stream, preferring the rear camera and falling back to
// any camera. On failure the pipeline stays idle with a Failure attached.
func (p *Pipeline) Request(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return ErrClosed
	case p.requesting || p.state != StateIdle:
		p.mu.Unlock()
		return ErrBusy
	}
	p.requesting = true
	p.failure = nil
	p.mu.Unlock()

	stream, err := p.device.Open(ctx, Constraints{Facing: FacingRear, Width: 1280, Height: 720})
	if err != nil {
		p.logger.Debug("rear camera unavailable, falling back", zap.Error(err))
		stream, err = p.device.Open(ctx, Constraints{Facing: FacingAny})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.requesting = false

	if err != nil {
		p.failure = &Failure{Reason: classify(err), Err: err}
		p.logger.Warn("camera request failed", zap.String("reason", string(p.failure.Reason)), zap.Error(err))
		return p.failure
	}

	if p.closed {
		p.release(stream)
		return ErrClosed
	}

	p.stream = stream
	p.state = StateStreaming
	p.logger.Debug("camera streaming")
	return nil
}

// Capture encodes the current frame, releases the device and moves to
// preview.
func (p *Pipeline) Capture(ctx context.Context) (*Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStreaming || p.stream == nil {
		return nil, ErrNotStreaming
	}

	width, height := p.stream.Dimensions()
	if width <= 0 || height <= 0 {
		return nil, ErrFeedNotReady
	}

	frame, err := p.stream.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}

	payload := &Payload{
		Data:        buf.Bytes(),
		ContentType: "image/jpeg",
		Width:       width,
		Height:      height,
		CapturedAt:  p.now(),
	}

	p.release(p.stream)
	p.stream = nil
	p.payload = payload
	p.state = StatePreview

	if p.onCapture != nil {
		p.onCapture(payload)
	}
	p.logger.Debug("photo captured", zap.Int("bytes", len(payload.Data)))
	return payload, nil
}

// Cancel stops streaming without capturing.
func (p *Pipeline) Cancel() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateStreaming {
		return ErrNotStreaming
	}
	p.release(p.stream)
	p.stream = nil
	p.state = StateIdle
	return nil
}

// Retake discards the captured photo so a new acquisition can start.
func (p *Pipeline) Retake() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePreview {
		return ErrNoPreview
	}
	p.payload = nil
	p.state = StateIdle
	if p.onCapture != nil {
		p.onCapture(nil)
	}
	return nil
}

// Close tears the pipeline down, releasing any held stream. It is safe to
// call more than once.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	if p.stream != nil {
		err = p.stream.Close()
		p.stream = nil
	}
	p.payload = nil
	p.state = StateIdle
	return err
}

func (p *Pipeline) release(stream Stream) {
	if stream == nil {
		return
	}
	if err := stream.Close(); err != nil {
		p.logger.Warn("failed to release camera stream", zap.Error(err))
	}
}
