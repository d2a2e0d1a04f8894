package schema

import (
	"time"

	"dispatch/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	FieldServiceID       = "serviceId"
	FieldTechnicianID    = "technicianId"
	FieldStatus          = "status"
	FieldCustomerName    = "customerName"
	FieldCustomerPhone   = "customerPhone"
	FieldCustomerAddress = "customerAddress"
	FieldNotes           = "notes"
	FieldCreatedAt       = "createdAt"
	FieldScheduledAt     = "scheduledAt"
)

func DecodeBooking(doc bson.M) (*model.Booking, error) {
	id, ok := DocumentID(doc)
	if !ok {
		return nil, malformed(CollectionBookings, "", "_id", "missing or not an id")
	}

	status := model.BookingStatusPending
	switch raw := doc[FieldStatus].(type) {
	case nil:
	case string:
		if raw != "" {
			status = model.BookingStatus(raw)
		}
	default:
		return nil, malformed(CollectionBookings, id, FieldStatus, "not a string")
	}
	if !status.Valid() {
		return nil, malformed(CollectionBookings, id, FieldStatus, "unknown status "+string(status))
	}

	var technicianID *string
	switch raw := doc[FieldTechnicianID].(type) {
	case nil:
	case string:
		if raw != "" {
			technicianID = &raw
		}
	default:
		if oid, ok := DocumentID(bson.M{"_id": raw}); ok {
			technicianID = &oid
		} else {
			return nil, malformed(CollectionBookings, id, FieldTechnicianID, "not a string or null")
		}
	}

	return &model.Booking{
		ID:              id,
		ServiceID:       refString(doc[FieldServiceID]),
		TechnicianID:    technicianID,
		Status:          status,
		CustomerName:    str(doc, FieldCustomerName),
		CustomerPhone:   str(doc, FieldCustomerPhone),
		CustomerAddress: str(doc, FieldCustomerAddress),
		Notes:           str(doc, FieldNotes),
		CreatedAt:       timeField(doc, FieldCreatedAt),
		ScheduledAt:     timeField(doc, FieldScheduledAt),
	}, nil
}

// EncodeBooking renders a new booking. A nil technician is stored as null.
func EncodeBooking(b *model.Booking) bson.M {
	var technicianID any
	if b.HasTechnician() {
		technicianID = *b.TechnicianID
	}
	doc := bson.M{
		FieldServiceID:       b.ServiceID,
		FieldTechnicianID:    technicianID,
		FieldStatus:          string(b.Status),
		FieldCustomerName:    b.CustomerName,
		FieldCustomerPhone:   b.CustomerPhone,
		FieldCustomerAddress: b.CustomerAddress,
		FieldCreatedAt:       b.CreatedAt.UTC(),
		FieldScheduledAt:     b.ScheduledAt.UTC(),
	}
	if b.Notes != "" {
		doc[FieldNotes] = b.Notes
	}
	return doc
}

// AssignmentUpdate is the only write the assignment workflow performs.
func AssignmentUpdate(technicianID string, status model.BookingStatus) bson.M {
	return bson.M{"$set": bson.M{
		FieldTechnicianID: technicianID,
		FieldStatus:       string(status),
	}}
}

// refString reads a reference field that may hold a string or an ObjectID.
func refString(v any) string {
	id, _ := DocumentID(bson.M{"_id": v})
	return id
}

func zeroTimeToNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
