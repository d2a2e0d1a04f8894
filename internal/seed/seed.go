// Package seed fills an empty database with sample catalog data.
package seed

import (
	"context"
	"fmt"
	"time"

	"dispatch/pkg/logger"
	"dispatch/pkg/model"
)

type ServiceCreator interface {
	Create(ctx context.Context, input *model.ServiceCreate) (*model.Service, error)
}

type TechnicianCreator interface {
	Create(ctx context.Context, input *model.TechnicianCreate) (*model.Technician, error)
}

type BookingCreator interface {
	Create(ctx context.Context, input *model.BookingCreate) (*model.Booking, error)
}

var Services = []model.ServiceCreate{
	{Title: "Pipe Leak Repair", Category: "plumbing", Price: 250, Duration: 60},
	{Title: "Water Heater Installation", Category: "plumbing", Price: 650, Duration: 120},
	{Title: "Electrical Panel Inspection", Category: "electrical", Price: 300, Duration: 90},
	{Title: "AC Maintenance", Category: "hvac", Price: 280, Duration: 75},
}

var Technicians = []model.TechnicianCreate{
	{Name: "Avi Levi", Phone: "054-111-2233", Skills: []string{"plumbing", "heating"}},
	{Name: "Noa Katz", Phone: "052-444-5566", Skills: []string{"electrical"}},
	{Name: "Yossi Cohen", Phone: "050-777-8899", Skills: []string{"hvac", "electrical"}},
}

var customers = []struct {
	name, phone, address string
}{
	{"Dana Mizrahi", "053-123-4567", "12 Herzl St, Tel Aviv"},
	{"Omer Shapiro", "058-765-4321", "4 Jaffa Rd, Jerusalem"},
	{"Maya Friedman", "054-222-3344", "27 HaNassi Blvd, Haifa"},
}

type Result struct {
	Services    []*model.Service
	Technicians []*model.Technician
	Bookings    []*model.Booking
}

type Seeder struct {
	services    ServiceCreator
	technicians TechnicianCreator
	bookings    BookingCreator
	log         *logger.Logger
	now         func() time.Time
}

func NewSeeder(services ServiceCreator, technicians TechnicianCreator, bookings BookingCreator, log *logger.Logger) *Seeder {
	return &Seeder{
		services:    services,
		technicians: technicians,
		bookings:    bookings,
		log:         log,
		now:         time.Now,
	}
}

// Run inserts the sample services and technicians, then one pending booking
// per sample customer. It stops at the first failure.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	result := &Result{}

	for i := range Services {
		svc, err := s.services.Create(ctx, &Services[i])
		if err != nil {
			return result, fmt.Errorf("failed to seed service %q: %w", Services[i].Title, err)
		}
		result.Services = append(result.Services, svc)
	}
	s.log.Info("Seeded services", "count", len(result.Services))

	for i := range Technicians {
		tech, err := s.technicians.Create(ctx, &Technicians[i])
		if err != nil {
			return result, fmt.Errorf("failed to seed technician %q: %w", Technicians[i].Name, err)
		}
		result.Technicians = append(result.Technicians, tech)
	}
	s.log.Info("Seeded technicians", "count", len(result.Technicians))

	start := s.now().UTC().Truncate(time.Hour).Add(24 * time.Hour)
	for i, c := range customers {
		input := &model.BookingCreate{
			ServiceID:       result.Services[i%len(result.Services)].ID,
			CustomerName:    c.name,
			CustomerPhone:   c.phone,
			CustomerAddress: c.address,
			ScheduledAt:     start.Add(time.Duration(i) * 3 * time.Hour),
		}
		booking, err := s.bookings.Create(ctx, input)
		if err != nil {
			return result, fmt.Errorf("failed to seed booking for %q: %w", c.name, err)
		}
		result.Bookings = append(result.Bookings, booking)
	}
	s.log.Info("Seeded pending bookings", "count", len(result.Bookings))

	return result, nil
}
