// Package lookup joins bookings with the display names of the services and
// technicians they reference.
package lookup

import (
	"context"

	"dispatch/pkg/model"

	"golang.org/x/sync/errgroup"
)

const (
	UnknownService    = "Unknown Service"
	Unassigned        = "Unassigned"
	UnknownTechnician = "Unknown Technician"
)

type ServiceSource interface {
	FindAll(ctx context.Context) ([]*model.Service, error)
}

type TechnicianSource interface {
	FindAll(ctx context.Context) ([]*model.Technician, error)
}

type BookingSource interface {
	FindRecent(ctx context.Context, limit int) ([]*model.Booking, error)
}

// FetchError names the collection whose read failed.
type FetchError struct {
	Thing string
	Err   error
}

func (e *FetchError) Error() string {
	return "failed to load " + e.Thing + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Snapshot struct {
	Services    []*model.Service
	Technicians []*model.Technician
	Bookings    []*model.Booking
}

// Fetch reads services, technicians and the first page of bookings
// concurrently and returns once all three have completed. The first failure
// cancels the other reads.
func Fetch(ctx context.Context, services ServiceSource, technicians TechnicianSource, bookings BookingSource, limit int) (*Snapshot, error) {
	var snap Snapshot
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, err := services.FindAll(ctx)
		if err != nil {
			return &FetchError{Thing: "services", Err: err}
		}
		snap.Services = result
		return nil
	})
	g.Go(func() error {
		result, err := technicians.FindAll(ctx)
		if err != nil {
			return &FetchError{Thing: "technicians", Err: err}
		}
		snap.Technicians = result
		return nil
	})
	g.Go(func() error {
		result, err := bookings.FindRecent(ctx, limit)
		if err != nil {
			return &FetchError{Thing: "bookings", Err: err}
		}
		snap.Bookings = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Directory maps ids to display names.
type Directory struct {
	services    map[string]string
	technicians map[string]string
}

func NewDirectory(services []*model.Service, technicians []*model.Technician) *Directory {
	d := &Directory{
		services:    make(map[string]string, len(services)),
		technicians: make(map[string]string, len(technicians)),
	}
	for _, s := range services {
		d.services[s.ID] = s.Title
	}
	for _, t := range technicians {
		d.technicians[t.ID] = t.Name
	}
	return d
}

func (d *Directory) ServiceName(id string) string {
	if name, ok := d.services[id]; ok && name != "" {
		return name
	}
	return UnknownService
}

func (d *Directory) TechnicianName(id *string) string {
	if id == nil || *id == "" {
		return Unassigned
	}
	if name, ok := d.technicians[*id]; ok && name != "" {
		return name
	}
	return UnknownTechnician
}

func (d *Directory) View(b *model.Booking) *model.BookingView {
	return &model.BookingView{
		Booking:        b,
		ServiceName:    d.ServiceName(b.ServiceID),
		TechnicianName: d.TechnicianName(b.TechnicianID),
	}
}

// Join substitutes names in a single pass, preserving booking order.
func (d *Directory) Join(bookings []*model.Booking) []*model.BookingView {
	views := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		views = append(views, d.View(b))
	}
	return views
}

func (s *Snapshot) Join() []*model.BookingView {
	return NewDirectory(s.Services, s.Technicians).Join(s.Bookings)
}
