package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"staycal/internal/domain/calendar"
)

// CalendarRepository stores one document per property. Entries and
// reservations are arrays so their order survives the round trip.
type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("property_calendars")}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id calendar.PropertyID) (*calendar.PropertyCalendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, calendar.ErrPropertyNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// Save writes cal when the stored version is the one it was loaded at.
func (r *CalendarRepository) Save(ctx context.Context, cal *calendar.PropertyCalendar) error {
	doc := fromDomain(cal)
	filter := bson.M{"_id": doc.ID, "version": cal.Version - 1}
	_, err := r.col.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// The upsert tried to insert because the version filter missed.
		return calendar.ErrVersionConflict
	}
	return err
}

// IDs lists every stored property.
func (r *CalendarRepository) IDs(ctx context.Context) ([]calendar.PropertyID, error) {
	raw, err := r.col.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]calendar.PropertyID, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, calendar.PropertyID(s))
		}
	}
	return out, nil
}

type calendarDocument struct {
	ID           string                `bson:"_id"`
	Entries      []entryDocument       `bson:"entries"`
	Reservations []reservationDocument `bson:"reservations"`
	Version      int64                 `bson:"version"`
	UpdatedAt    time.Time             `bson:"updated_at"`
}

type entryDocument struct {
	Key           string `bson:"key"`
	Date          string `bson:"date,omitempty"`
	StartDate     string `bson:"start_date,omitempty"`
	EndDate       string `bson:"end_date,omitempty"`
	ReservationID string `bson:"reservation_id,omitempty"`
	Duration      string `bson:"duration,omitempty"`
}

type reservationDocument struct {
	ID             string `bson:"id"`
	GuestFirstName string `bson:"guest_first_name,omitempty"`
	GuestLastName  string `bson:"guest_last_name,omitempty"`
	CheckinDate    string `bson:"checkin_date,omitempty"`
	CheckoutDate   string `bson:"checkout_date,omitempty"`
	CheckinTime    string `bson:"checkin_time,omitempty"`
	CheckoutTime   string `bson:"checkout_time,omitempty"`
	Status         string `bson:"status,omitempty"`
}

func fromDomain(cal *calendar.PropertyCalendar) calendarDocument {
	doc := calendarDocument{ID: string(cal.PropertyID), Version: cal.Version, UpdatedAt: cal.UpdatedAt}
	for _, e := range cal.Payload.Calendar {
		doc.Entries = append(doc.Entries, entryDocument{
			Key: e.Key, Date: e.Date, StartDate: e.StartDate, EndDate: e.EndDate,
			ReservationID: e.ReservationID, Duration: string(e.Duration),
		})
	}
	for _, ev := range cal.Payload.Reservations.All() {
		doc.Reservations = append(doc.Reservations, reservationDocument{
			ID: ev.ID, GuestFirstName: ev.GuestFirstName, GuestLastName: ev.GuestLastName,
			CheckinDate: ev.CheckinDate.String(), CheckoutDate: ev.CheckoutDate.String(),
			CheckinTime: ev.CheckinTime, CheckoutTime: ev.CheckoutTime, Status: ev.Status,
		})
	}
	return doc
}

func (d calendarDocument) toDomain() *calendar.PropertyCalendar {
	cal := &calendar.PropertyCalendar{PropertyID: calendar.PropertyID(d.ID), Version: d.Version, UpdatedAt: d.UpdatedAt}
	for _, e := range d.Entries {
		cal.Payload.Calendar = append(cal.Payload.Calendar, calendar.Entry{
			Key: e.Key, Date: e.Date, StartDate: e.StartDate, EndDate: e.EndDate,
			ReservationID: e.ReservationID, Duration: calendar.Duration(e.Duration),
		})
	}
	for _, r := range d.Reservations {
		checkin, _ := calendar.ParseDate(r.CheckinDate)
		checkout, _ := calendar.ParseDate(r.CheckoutDate)
		cal.Payload.Reservations.Put(calendar.ReservationEvent{
			ID: r.ID, GuestFirstName: r.GuestFirstName, GuestLastName: r.GuestLastName,
			CheckinDate: checkin, CheckoutDate: checkout,
			CheckinTime: r.CheckinTime, CheckoutTime: r.CheckoutTime, Status: r.Status,
		})
	}
	return cal
}

var _ calendar.Repository = (*CalendarRepository)(nil)
