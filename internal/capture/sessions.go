package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
)

// Session binds a pipeline and its feed to the actor that opened it.
type Session struct {
	ID        string
	OwnerID   string
	Pipeline  *Pipeline
	Feed      *FeedDevice
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Registry keeps the capture sessions of connected scale terminals.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	quality  int
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates a registry whose sessions expire after ttl without
// activity.
func NewRegistry(ttl time.Duration, quality int, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		quality:  quality,
		now:      time.Now,
		logger:   logger,
	}
}

// Terminal describes the camera of the scale terminal opening a session.
type Terminal struct {
	HasRearCamera bool `json:"has_rear_camera"`
	// PermissionDenied is set when the operator refused camera access.
	PermissionDenied bool `json:"permission_denied"`
}

// Open registers a new session for ownerID and immediately requests the
// camera. The session is kept even when the request fails so the operator can
// retry with Request.
func (r *Registry) Open(ctx context.Context, ownerID string, terminal Terminal) (*Session, error) {
	feed := NewFeedDevice(terminal.HasRearCamera)
	if terminal.PermissionDenied {
		feed.Deny()
	}
	now := r.now()
	session := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Feed:      feed,
		CreatedAt: now,
		lastSeen:  now,
	}
	session.Pipeline = NewPipeline(feed,
		WithQuality(r.quality),
		WithClock(r.now),
		WithLogger(r.logger.With(zap.String("session_id", session.ID))),
	)

	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()

	r.logger.Info("capture session opened", zap.String("session_id", session.ID), zap.String("owner", ownerID))
	return session, session.Pipeline.Request(ctx)
}

// Get returns the session id owned by ownerID.
func (r *Registry) Get(id, ownerID string) (*Session, error) {
	r.mu.Lock()
	session, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok || session.OwnerID != ownerID {
		return nil, fmt.Errorf("capture session %s: %w", id, apperr.ErrNotFound)
	}
	session.touch(r.now())
	return session, nil
}

// Release tears the session down and forgets it.
func (r *Registry) Release(id, ownerID string) error {
	r.mu.Lock()
	session, ok := r.sessions[id]
	if ok && session.OwnerID == ownerID {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok || session.OwnerID != ownerID {
		return fmt.Errorf("capture session %s: %w", id, apperr.ErrNotFound)
	}
	return session.Pipeline.Close()
}

// Sweep releases sessions idle for longer than the ttl and returns how many
// were removed.
func (r *Registry) Sweep() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, session := range r.sessions {
		if session.idleSince().Before(cutoff) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, session := range expired {
		if err := session.Pipeline.Close(); err != nil {
			r.logger.Warn("failed to close expired capture session", zap.String("session_id", session.ID), zap.Error(err))
		}
	}
	if len(expired) > 0 {
		r.logger.Info("expired capture sessions released", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// CloseAll releases every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, session := range sessions {
		_ = session.Pipeline.Close()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
