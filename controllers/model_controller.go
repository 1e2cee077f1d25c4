// Package controllers file: controllers/model_controller.go
package controllers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go-model-viewer/logger"
	"go-model-viewer/services"
)

// ModelController serves the model list and assets.
type ModelController struct {
	Catalog services.CatalogServiceInterface
}

// NewModelController creates an instance of ModelController
func NewModelController(catalog services.CatalogServiceInterface) *ModelController {
	logger.Debug.Println("[NewModelController] Initializing ModelController")
	return &ModelController{Catalog: catalog}
}

// ListModels handles GET /models/?format=json[&name=1].
func (mc *ModelController) ListModels(c *gin.Context) {
	if format := c.DefaultQuery("format", "json"); format != "json" {
		logger.Warn.Printf("[ListModels] Unsupported format=%q", format)
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported format: " + format})
		return
	}

	if c.Query("name") == "1" {
		entries, err := mc.Catalog.ListEntries()
		if err != nil {
			logger.Error.Printf("[ListModels] %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list models"})
			return
		}
		c.JSON(http.StatusOK, entries)
		return
	}

	records, err := mc.Catalog.ListModels()
	if err != nil {
		logger.Error.Printf("[ListModels] %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list models"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetModelAsset handles GET /models/:file.
func (mc *ModelController) GetModelAsset(c *gin.Context) {
	file := c.Param("file")

	f, info, err := mc.Catalog.OpenModel(file)
	switch {
	case errors.Is(err, services.ErrInvalidFileName):
		logger.Warn.Printf("[GetModelAsset] Rejected file=%q", file)
		c.String(http.StatusBadRequest, "invalid model name")
		return
	case errors.Is(err, services.ErrModelNotFound):
		logger.Info.Printf("[GetModelAsset] Not found file=%q", file)
		c.String(http.StatusNotFound, "model not found")
		return
	case err != nil:
		logger.Error.Printf("[GetModelAsset] %v", err)
		c.String(http.StatusInternalServerError, "could not read model")
		return
	}
	defer f.Close()

	c.Header("Content-Type", contentType(file))
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}

func contentType(file string) string {
	if strings.EqualFold(filepath.Ext(file), ".json") {
		return "application/json"
	}
	return "application/javascript"
}
