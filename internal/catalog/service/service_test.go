package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	catalogerrors "dispatch/internal/catalog/errors"
	"dispatch/internal/catalog/validator"
	"dispatch/pkg/config"
	"dispatch/pkg/db/mongodb"
	apperrors "dispatch/pkg/errors"
	"dispatch/pkg/logger"
	"dispatch/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockServiceRepository struct {
	services map[string]*model.Service
	creates  int
	updates  int
	failWith error
}

func newMockRepo(services ...*model.Service) *mockServiceRepository {
	m := &mockServiceRepository{services: map[string]*model.Service{}}
	for _, s := range services {
		m.services[s.ID] = s
	}
	return m
}

func (m *mockServiceRepository) Create(ctx context.Context, service *model.Service) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.creates++
	service.ID = fmt.Sprintf("s%d", m.creates)
	copied := *service
	m.services[service.ID] = &copied
	return nil
}

func (m *mockServiceRepository) FindByID(ctx context.Context, id string) (*model.Service, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	s, ok := m.services[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (m *mockServiceRepository) FindAll(ctx context.Context) ([]*model.Service, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := make([]*model.Service, 0, len(m.services))
	for _, s := range m.services {
		out = append(out, s)
	}
	return out, nil
}

func (m *mockServiceRepository) Update(ctx context.Context, id string, update *model.ServiceUpdate) error {
	s, ok := m.services[id]
	if !ok {
		return catalogerrors.ErrNotFound
	}
	m.updates++
	if update.Title != nil {
		s.Title = *update.Title
	}
	if update.Category != nil {
		s.Category = *update.Category
	}
	if update.Price != nil {
		s.Price = *update.Price
	}
	if update.Duration != nil {
		s.Duration = *update.Duration
	}
	return nil
}

func (m *mockServiceRepository) SetActive(ctx context.Context, id string, active bool) error {
	s, ok := m.services[id]
	if !ok {
		return catalogerrors.ErrNotFound
	}
	m.updates++
	s.IsActive = active
	return nil
}

func newTestService(repo *mockServiceRepository) CatalogService {
	log := logger.Discard()
	return NewCatalogService(repo, validator.NewServiceValidator(log), &config.Config{Log: log})
}

func TestCreate_ActiveByDefault(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	created, err := svc.Create(context.Background(), &model.ServiceCreate{
		Title:    "  Pipe   repair ",
		Category: "plumbing",
		Price:    120,
		Duration: 60,
	})

	require.NoError(t, err)
	assert.Equal(t, "Pipe repair", created.Title)
	assert.True(t, created.IsActive)
	assert.Equal(t, 1, repo.creates)
}

func TestCreate_RejectsNonPositivePriceAndDuration(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), &model.ServiceCreate{Title: "Wiring", Price: 0, Duration: -5})

	appErr := apperrors.AsAppError(err)
	require.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Details, "price")
	assert.Contains(t, appErr.Details, "duration")
	assert.Zero(t, repo.creates)
}

func TestUpdate_PartialFields(t *testing.T) {
	repo := newMockRepo(&model.Service{ID: "s1", Title: "Wiring", Price: 100, Duration: 30, IsActive: true})
	svc := newTestService(repo)

	price := 150.0
	updated, err := svc.Update(context.Background(), "s1", &model.ServiceUpdate{Price: &price})

	require.NoError(t, err)
	assert.Equal(t, 150.0, updated.Price)
	assert.Equal(t, "Wiring", updated.Title)
	assert.Equal(t, 30, updated.Duration)
}

func TestUpdate_EmptyIsInvalidInput(t *testing.T) {
	repo := newMockRepo(&model.Service{ID: "s1", Title: "Wiring"})
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), "s1", &model.ServiceUpdate{})

	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
	assert.Zero(t, repo.updates)
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newTestService(newMockRepo())

	title := "Painting"
	_, err := svc.Update(context.Background(), "missing", &model.ServiceUpdate{Title: &title})

	assert.Equal(t, apperrors.CodeNotFound, apperrors.AsAppError(err).Code)
}

func TestToggleActive_Flips(t *testing.T) {
	repo := newMockRepo(&model.Service{ID: "s1", Title: "Wiring", IsActive: true})
	svc := newTestService(repo)

	toggled, err := svc.ToggleActive(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = svc.ToggleActive(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)
}

func TestGetAll_ReadFaultMessage(t *testing.T) {
	repo := newMockRepo()
	repo.failWith = fmt.Errorf("find: %w", mongodb.ErrPermissionDenied)
	svc := newTestService(repo)

	_, err := svc.GetAll(context.Background())

	assert.Equal(t, http.StatusForbidden, apperrors.AsAppError(err).StatusCode())
}
