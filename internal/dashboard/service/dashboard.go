package service

import (
	"context"
	"errors"

	"dispatch/internal/dashboard/lookup"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	"dispatch/pkg/model"
)

type DashboardService interface {
	Summary(ctx context.Context) (*model.DashboardSummary, error)
}

type dashboardService struct {
	services    lookup.ServiceSource
	technicians lookup.TechnicianSource
	bookings    lookup.BookingSource
	cfg         *config.Config
}

func NewDashboardService(
	services lookup.ServiceSource,
	technicians lookup.TechnicianSource,
	bookings lookup.BookingSource,
	cfg *config.Config,
) DashboardService {
	return &dashboardService{
		services:    services,
		technicians: technicians,
		bookings:    bookings,
		cfg:         cfg,
	}
}

// Summary fetches the three collections concurrently, joins the booking page
// and derives the counters shown on the overview screen. Read faults are not
// retried.
func (s *dashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	snap, err := lookup.Fetch(ctx, s.services, s.technicians, s.bookings, s.cfg.BookingsPageSize)
	if err != nil {
		thing := "dashboard"
		var fetchErr *lookup.FetchError
		if errors.As(err, &fetchErr) {
			thing = fetchErr.Thing
		}
		s.cfg.Log.Error("Failed to load dashboard", "thing", thing, "error", err)
		return nil, mongodb.LoadError(thing, err)
	}

	summary := &model.DashboardSummary{
		StatusCounts:   make(map[model.BookingStatus]int, 4),
		RecentBookings: snap.Join(),
	}
	for _, status := range []model.BookingStatus{
		model.BookingStatusPending,
		model.BookingStatusAssigned,
		model.BookingStatusCompleted,
		model.BookingStatusCancelled,
	} {
		summary.StatusCounts[status] = 0
	}

	summary.Counts.Services = len(snap.Services)
	for _, svc := range snap.Services {
		if svc.IsActive {
			summary.Counts.ActiveServices++
		}
	}
	summary.Counts.Technicians = len(snap.Technicians)
	for _, t := range snap.Technicians {
		if t.Active {
			summary.Counts.ActiveTechnicians++
		}
	}
	summary.Counts.Bookings = len(snap.Bookings)
	for _, b := range snap.Bookings {
		summary.StatusCounts[b.Status]++
	}

	return summary, nil
}
