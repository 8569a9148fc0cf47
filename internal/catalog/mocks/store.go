// Code in the style of mockery: testify/mock implementation of catalog.Store.

package mocks

import (
	"context"

	"github.com/bartek5186/autoparts-catalog/internal/catalog"
	"github.com/bartek5186/autoparts-catalog/internal/db"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

// NewMockStore tworzy mock i sprawdza oczekiwania po zakończeniu testu.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	m := &MockStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// WithinTx: jeśli Return dostał funkcję, jest ona wywoływana (np. żeby uruchomić fn na samym mocku).
func (m *MockStore) WithinTx(ctx context.Context, fn func(tx catalog.Store) error) error {
	args := m.Called(ctx, fn)
	if rf, ok := args.Get(0).(func(context.Context, func(catalog.Store) error) error); ok {
		return rf(ctx, fn)
	}
	return args.Error(0)
}

func (m *MockStore) PartByNumber(ctx context.Context, partNumber string) (*db.SparePart, error) {
	args := m.Called(ctx, partNumber)
	p, _ := args.Get(0).(*db.SparePart)
	return p, args.Error(1)
}

func (m *MockStore) PartSlugTaken(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreatePart(ctx context.Context, p *db.SparePart) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) UpdatePartStock(ctx context.Context, p *db.SparePart) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockStore) FindCarModels(ctx context.Context, ref catalog.CarRef) ([]db.CarModel, error) {
	args := m.Called(ctx, ref)
	out, _ := args.Get(0).([]db.CarModel)
	return out, args.Error(1)
}

func (m *MockStore) AttachCarModel(ctx context.Context, partID, modelID uint, notes string) (bool, error) {
	args := m.Called(ctx, partID, modelID, notes)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) SaveLinkIssue(ctx context.Context, issue *db.LinkIssue) error {
	return m.Called(ctx, issue).Error(0)
}

func (m *MockStore) BrandByName(ctx context.Context, name string) (*db.CarBrand, error) {
	args := m.Called(ctx, name)
	b, _ := args.Get(0).(*db.CarBrand)
	return b, args.Error(1)
}

func (m *MockStore) CreateBrand(ctx context.Context, b *db.CarBrand) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockStore) CarModelByKey(ctx context.Context, brandID uint, name, generation string) (*db.CarModel, error) {
	args := m.Called(ctx, brandID, name, generation)
	cm, _ := args.Get(0).(*db.CarModel)
	return cm, args.Error(1)
}

func (m *MockStore) BrandSlugTaken(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CarModelSlugTaken(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) CreateCarModel(ctx context.Context, cm *db.CarModel) error {
	return m.Called(ctx, cm).Error(0)
}

func (m *MockStore) UpdateCarModel(ctx context.Context, cm *db.CarModel) error {
	return m.Called(ctx, cm).Error(0)
}
