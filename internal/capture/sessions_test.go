package capture

import (
	"context"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/mamadbah2/avicola/internal/apperr"
)

func TestFeedDevice(t *testing.T) {
	feed := NewFeedDevice(false)

	if _, err := feed.Open(context.Background(), Constraints{Facing: FacingRear}); !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Fatalf("rear open without rear camera = %v", err)
	}

	stream, err := feed.Open(context.Background(), Constraints{Facing: FacingAny})
	if err != nil {
		t.Fatal(err)
	}
	if w, h := stream.Dimensions(); w != 0 || h != 0 {
		t.Errorf("dimensions before first frame = %dx%d", w, h)
	}
	if _, err := feed.Open(context.Background(), Constraints{}); !errors.Is(err, apperr.ErrDeviceUnavailable) {
		t.Errorf("second open while held = %v", err)
	}

	if err := feed.Push(image.NewGray(image.Rect(0, 0, 8, 6))); err != nil {
		t.Fatal(err)
	}
	if w, h := stream.Dimensions(); w != 8 || h != 6 {
		t.Errorf("dimensions = %dx%d, want 8x6", w, h)
	}

	_ = stream.Close()
	if feed.Held() {
		t.Error("feed should not be held after close")
	}
	if err := feed.Push(image.NewGray(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrStreamClosed) {
		t.Errorf("push after close = %v", err)
	}

	feed.Deny()
	if _, err := feed.Open(context.Background(), Constraints{}); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("open after deny = %v", err)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(10*time.Minute, DefaultQuality, nil)
	current := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return current }

	session, err := reg.Open(context.Background(), "pesador-1", Terminal{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if session.Pipeline.State() != StateStreaming {
		t.Fatalf("state = %s, want streaming through fallback", session.Pipeline.State())
	}

	if _, err := reg.Get(session.ID, "someone-else"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("foreign Get = %v", err)
	}

	if err := session.Feed.Push(image.NewRGBA(image.Rect(0, 0, 32, 24))); err != nil {
		t.Fatal(err)
	}
	if _, err := session.Pipeline.Capture(context.Background()); err != nil {
		t.Fatal(err)
	}
	if session.Feed.Held() {
		t.Error("feed must be released after capture")
	}
	if payload, err := session.Pipeline.Evidence(); err != nil || payload.Width != 32 {
		t.Errorf("Evidence = %v, %v", payload, err)
	}

	if err := reg.Release(session.ID, "pesador-1"); err != nil {
		t.Fatal(err)
	}
	if reg.Len() != 0 {
		t.Errorf("Len = %d after release", reg.Len())
	}
	if err := reg.Release(session.ID, "pesador-1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("double release = %v", err)
	}
}

func TestRegistrySweepReleasesStreamingSessions(t *testing.T) {
	reg := NewRegistry(10*time.Minute, DefaultQuality, nil)
	current := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return current }

	stale, err := reg.Open(context.Background(), "a", Terminal{HasRearCamera: true})
	if err != nil {
		t.Fatal(err)
	}

	current = current.Add(8 * time.Minute)
	fresh, err := reg.Open(context.Background(), "b", Terminal{HasRearCamera: true})
	if err != nil {
		t.Fatal(err)
	}

	current = current.Add(5 * time.Minute)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d, want 1", n)
	}
	if stale.Feed.Held() {
		t.Error("expired session must release its feed")
	}
	if !fresh.Feed.Held() {
		t.Error("fresh session must keep streaming")
	}

	reg.CloseAll()
	if fresh.Feed.Held() || reg.Len() != 0 {
		t.Error("CloseAll must release everything")
	}
}

func TestRegistryKeepsFailedSessionForRetry(t *testing.T) {
	reg := NewRegistry(time.Minute, DefaultQuality, nil)
	session, err := reg.Open(context.Background(), "a", Terminal{HasRearCamera: true})
	if err != nil {
		t.Fatal(err)
	}
	_ = session.Pipeline.Cancel()
	session.Feed.Deny()

	if err := session.Pipeline.Request(context.Background()); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("Request after deny = %v", err)
	}
	if _, err := reg.Get(session.ID, "a"); err != nil {
		t.Errorf("failed session should remain registered: %v", err)
	}
}

func TestRegistryOpenDeniedTerminal(t *testing.T) {
	reg := NewRegistry(time.Minute, DefaultQuality, nil)
	session, err := reg.Open(context.Background(), "a", Terminal{HasRearCamera: true, PermissionDenied: true})

	var failure *Failure
	if !errors.As(err, &failure) || failure.Reason != ReasonPermissionDenied {
		t.Fatalf("Open err = %v, want permission-denied failure", err)
	}
	if session == nil || session.Pipeline.State() != StateIdle {
		t.Fatalf("session should stay registered and idle")
	}
	if reg.Len() != 1 {
		t.Errorf("Len = %d", reg.Len())
	}
}
