package selection

import "time"

type Changed struct {
	SessionID string
	Role      Role
	From      string
	To        string
	At        time.Time
}

func (e Changed) EventName() string     { return "selection.changed" }
func (e Changed) AggregateID() string   { return e.SessionID }
func (e Changed) OccurredAt() time.Time { return e.At }

func ChangedEvent(sessionID string, c Change, at time.Time) Changed {
	return Changed{SessionID: sessionID, Role: c.Role, From: c.From.String(), To: c.To.String(), At: at.UTC()}
}
