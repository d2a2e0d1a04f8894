package seed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServices struct{ created []*model.ServiceCreate }

func (f *fakeServices) Create(ctx context.Context, input *model.ServiceCreate) (*model.Service, error) {
	f.created = append(f.created, input)
	return &model.Service{ID: fmt.Sprintf("svc-%d", len(f.created)), Title: input.Title, IsActive: true}, nil
}

type fakeTechnicians struct{ err error }

func (f *fakeTechnicians) Create(ctx context.Context, input *model.TechnicianCreate) (*model.Technician, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Technician{ID: "tech-" + input.Name, Name: input.Name, Active: true}, nil
}

type fakeBookings struct{ created []*model.BookingCreate }

func (f *fakeBookings) Create(ctx context.Context, input *model.BookingCreate) (*model.Booking, error) {
	f.created = append(f.created, input)
	return &model.Booking{ID: fmt.Sprintf("bk-%d", len(f.created)), ServiceID: input.ServiceID, Status: model.BookingStatusPending}, nil
}

func TestRun(t *testing.T) {
	services, bookings := &fakeServices{}, &fakeBookings{}

	result, err := NewSeeder(services, &fakeTechnicians{}, bookings, logger.Discard()).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Services, len(Services))
	assert.Len(t, result.Technicians, len(Technicians))
	require.Len(t, result.Bookings, len(customers))

	for _, b := range result.Bookings {
		assert.Equal(t, model.BookingStatusPending, b.Status)
		assert.Nil(t, b.TechnicianID)
	}
	assert.Equal(t, "svc-1", bookings.created[0].ServiceID)
	assert.True(t, bookings.created[1].ScheduledAt.After(bookings.created[0].ScheduledAt))
}

func TestRun_StopsAtFirstFailure(t *testing.T) {
	bookings := &fakeBookings{}

	_, err := NewSeeder(&fakeServices{}, &fakeTechnicians{err: errors.New("invalid phone")}, bookings, logger.Discard()).Run(context.Background())

	assert.ErrorContains(t, err, "Avi Levi")
	assert.Empty(t, bookings.created)
}
