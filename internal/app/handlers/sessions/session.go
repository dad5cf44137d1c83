package sessions

import (
	"context"
	"errors"
	"sync"

	"staycal/internal/app/dto"
	"staycal/internal/app/outbox"
	"staycal/internal/app/widget"
	"staycal/internal/domain/calendar"
	"staycal/internal/domain/selection"
)

var (
	ErrSessionNotFound = errors.New("sessions: session not found")
	ErrInvalidDate     = errors.New("sessions: invalid date")
)

// Session is one live picker widget held by the server on behalf of a client.
type Session struct {
	ID         string
	PropertyID string
	Widget     *widget.Widget

	mu      sync.Mutex
	notices []string
}

func (s *Session) notify(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, name)
}

// Notices returns and forgets the notifications raised so far.
func (s *Session) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}

// Snapshot maps the widget state and pending notifications.
func (s *Session) Snapshot() dto.Session {
	out := dto.MapSession(s.ID, s.PropertyID, s.Widget)
	out.Notifications = s.Notices()
	return out
}

type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
}

func parseRoleDate(role, date string) (selection.Role, calendar.Date, error) {
	r, err := selection.ParseRole(role)
	if err != nil {
		return "", calendar.Date{}, err
	}
	d, err := calendar.ParseDate(date)
	if err != nil {
		return "", calendar.Date{}, errors.Join(ErrInvalidDate, err)
	}
	return r, d, nil
}

// flush moves the widget's selection events onto the outbox.
func flush(ctx context.Context, box outbox.Outbox, enc outbox.EventEncoder, s *Session) error {
	return outbox.RecordDomainEvents(ctx, box, enc, s.Widget.DrainEvents())
}
