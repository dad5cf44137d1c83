package calendar

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrNotObject = errors.New("calendar: expected JSON object")

// Table is the calendar map of a payload. It keeps entries in the order the
// backend sent them because resolved records follow that order.
type Table []Entry

func (t Table) MarshalJSON() ([]byte, error) {
	pairs := make([]keyed, 0, len(t))
	for _, e := range t {
		pairs = append(pairs, keyed{key: e.Key, value: e})
	}
	return encodeObject(pairs)
}

func (t *Table) UnmarshalJSON(data []byte) error {
	var out Table
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return fmt.Errorf("calendar entry %q: %w", key, err)
		}
		e.Key = key
		out = append(out, e)
		return nil
	})
	if err != nil {
		return err
	}
	*t = out
	return nil
}

// Reservations maps reservation ids to events, remembering insertion order.
// The zero value is an empty set ready for Put.
type Reservations struct {
	ids  []string
	byID map[string]ReservationEvent
}

func NewReservations(events ...ReservationEvent) Reservations {
	var r Reservations
	for _, ev := range events {
		r.Put(ev)
	}
	return r
}

// Put inserts or replaces ev under ev.ID. Replacing keeps the original position.
func (r *Reservations) Put(ev ReservationEvent) {
	if r.byID == nil {
		r.byID = make(map[string]ReservationEvent)
	}
	if _, ok := r.byID[ev.ID]; !ok {
		r.ids = append(r.ids, ev.ID)
	}
	r.byID[ev.ID] = ev
}

func (r Reservations) Get(id string) (ReservationEvent, bool) {
	ev, ok := r.byID[id]
	return ev, ok
}

func (r *Reservations) Delete(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, existing := range r.ids {
		if existing == id {
			r.ids = append(r.ids[:i:i], r.ids[i+1:]...)
			break
		}
	}
}

func (r Reservations) Len() int { return len(r.ids) }

// All returns events in insertion order.
func (r Reservations) All() []ReservationEvent {
	out := make([]ReservationEvent, 0, len(r.ids))
	for _, id := range r.ids {
		out = append(out, r.byID[id])
	}
	return out
}

// Clone returns an independent copy; mutating it leaves r untouched.
func (r Reservations) Clone() Reservations {
	return NewReservations(r.All()...)
}

func (r Reservations) MarshalJSON() ([]byte, error) {
	pairs := make([]keyed, 0, len(r.ids))
	for _, ev := range r.All() {
		pairs = append(pairs, keyed{key: ev.ID, value: ev})
	}
	return encodeObject(pairs)
}

func (r *Reservations) UnmarshalJSON(data []byte) error {
	var out Reservations
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var ev ReservationEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return fmt.Errorf("reservation %q: %w", key, err)
		}
		ev.ID = key
		out.Put(ev)
		return nil
	})
	if err != nil {
		return err
	}
	*r = out
	return nil
}

// UnmarshalJSON tolerates unparseable dates, leaving them zero, so a single
// bad event does not sink the whole payload.
func (r *ReservationEvent) UnmarshalJSON(data []byte) error {
	var wire struct {
		GuestFirstName string `json:"guestFirstName"`
		GuestLastName  string `json:"guestLastName"`
		CheckinDate    string `json:"checkinDate"`
		CheckoutDate   string `json:"checkoutDate"`
		CheckinTime    string `json:"checkinTime"`
		CheckoutTime   string `json:"checkoutTime"`
		Status         string `json:"status"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	in, _ := ParseDate(wire.CheckinDate)
	out, _ := ParseDate(wire.CheckoutDate)
	*r = ReservationEvent{
		ID:             r.ID,
		GuestFirstName: wire.GuestFirstName,
		GuestLastName:  wire.GuestLastName,
		CheckinDate:    in,
		CheckoutDate:   out,
		CheckinTime:    wire.CheckinTime,
		CheckoutTime:   wire.CheckoutTime,
		Status:         wire.Status,
	}
	return nil
}

type keyed struct {
	key   string
	value any
}

func encodeObject(pairs []keyed) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeObject walks a JSON object key by key in document order. JSON null
// decodes as an empty object.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return ErrNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
