package memory

import (
	"context"
	"sort"
	"sync"

	"staycal/internal/app/handlers/sessions"
	"staycal/internal/domain/calendar"
)

// CalendarRepository keeps property calendars in memory. Stored values are
// copies so callers never share pending events or payload slices.
type CalendarRepository struct {
	mu        sync.RWMutex
	calendars map[calendar.PropertyID]calendar.PropertyCalendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{calendars: make(map[calendar.PropertyID]calendar.PropertyCalendar)}
}

// Calendar returns a copy of the stored calendar or calendar.ErrPropertyNotFound.
func (r *CalendarRepository) Calendar(ctx context.Context, id calendar.PropertyID) (*calendar.PropertyCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.calendars[id]
	if !ok {
		return nil, calendar.ErrPropertyNotFound
	}
	return detach(stored), nil
}

func (r *CalendarRepository) Save(ctx context.Context, cal *calendar.PropertyCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.calendars[cal.PropertyID]; ok && stored.Version >= cal.Version {
		return calendar.ErrVersionConflict
	}
	r.calendars[cal.PropertyID] = *detach(*cal)
	return nil
}

// IDs lists stored properties in id order.
func (r *CalendarRepository) IDs(ctx context.Context) ([]calendar.PropertyID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]calendar.PropertyID, 0, len(r.calendars))
	for id := range r.calendars {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func detach(c calendar.PropertyCalendar) *calendar.PropertyCalendar {
	return &calendar.PropertyCalendar{
		PropertyID: c.PropertyID,
		Payload: calendar.Payload{
			Calendar:     append(calendar.Table(nil), c.Payload.Calendar...),
			Reservations: c.Payload.Reservations.Clone(),
		},
		Version:   c.Version,
		UpdatedAt: c.UpdatedAt,
	}
}

// SessionStore holds live picker sessions.
type SessionStore struct {
	mu    sync.RWMutex
	items map[string]*sessions.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{items: make(map[string]*sessions.Session)}
}

func (s *SessionStore) Save(ctx context.Context, sess *sessions.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[sess.ID] = sess
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*sessions.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.items[id]
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	return sess, nil
}

var (
	_ calendar.Repository = (*CalendarRepository)(nil)
	_ sessions.Store      = (*SessionStore)(nil)
)
