// file: controllers/mock_catalog_service_test.go
package controllers

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"
	"go-model-viewer/models"
)

// MockCatalogService is a testify mock of services.CatalogServiceInterface.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) ListModels() ([]models.ModelRecord, error) {
	args := m.Called()
	records, _ := args.Get(0).([]models.ModelRecord)
	return records, args.Error(1)
}

func (m *MockCatalogService) ListEntries() ([]models.ModelEntry, error) {
	args := m.Called()
	entries, _ := args.Get(0).([]models.ModelEntry)
	return entries, args.Error(1)
}

func (m *MockCatalogService) OpenModel(file string) (*os.File, fs.FileInfo, error) {
	args := m.Called(file)
	f, _ := args.Get(0).(*os.File)
	info, _ := args.Get(1).(fs.FileInfo)
	return f, info, args.Error(2)
}
