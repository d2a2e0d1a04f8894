package model

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAssigned  BookingStatus = "assigned"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusAssigned, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Booking is a customer service request. TechnicianID is nil until a
// technician has been assigned.
type Booking struct {
	ID              string        `json:"id"`
	ServiceID       string        `json:"serviceId"`
	TechnicianID    *string       `json:"technicianId"`
	Status          BookingStatus `json:"status"`
	CustomerName    string        `json:"customerName"`
	CustomerPhone   string        `json:"customerPhone"`
	CustomerAddress string        `json:"customerAddress"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	ScheduledAt     time.Time     `json:"scheduledAt"`
}

func (b *Booking) HasTechnician() bool {
	return b.TechnicianID != nil && *b.TechnicianID != ""
}

// Clone returns a copy that shares no pointers with b.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	if b.TechnicianID != nil {
		id := *b.TechnicianID
		c.TechnicianID = &id
	}
	return &c
}

type BookingCreate struct {
	ServiceID       string    `json:"serviceId" validate:"required"`
	CustomerName    string    `json:"customerName" validate:"required,min=2,max=100"`
	CustomerPhone   string    `json:"customerPhone" validate:"required,phone"`
	CustomerAddress string    `json:"customerAddress" validate:"required,min=3,max=300"`
	Notes           string    `json:"notes,omitempty" validate:"omitempty,max=1000"`
	ScheduledAt     time.Time `json:"scheduledAt" validate:"required"`
}

// BookingView is a booking joined with its display names.
type BookingView struct {
	*Booking
	ServiceName    string `json:"serviceName"`
	TechnicianName string `json:"technicianName"`
}

// BookingDetail is a single booking with the records it references. Service
// and Technician are nil when the reference is unset or unresolved.
type BookingDetail struct {
	BookingView
	Service    *Service    `json:"service,omitempty"`
	Technician *Technician `json:"technician,omitempty"`
}
