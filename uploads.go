package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/resto_backend/config"
	"bitbucket.org/mmdatafocus/resto_backend/etl"
	"bitbucket.org/mmdatafocus/resto_backend/models"
	"bitbucket.org/mmdatafocus/resto_backend/services"
	"bitbucket.org/mmdatafocus/resto_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxUploadSizeBytes int64 = 50 * 1024 * 1024

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
}

// application wires the resolvers and the pipeline once DB and redis are
// ready. Handlers call get() lazily because routes are registered before
// the dependencies finish connecting.
type application struct {
	once          sync.Once
	consolidation *services.ConsolidationResolver
	conversions   *services.UnitConversionResolver
	costHistory   *services.CostHistoryCalculator
	pipeline      *etl.Pipeline
}

var app application

func (a *application) get() *application {
	a.once.Do(func() {
		db := config.GetDB()
		ttl := utils.GetCacheLifespan()
		a.consolidation = services.NewConsolidationResolver(db,
			services.NewCache(config.GetRedisDB(), "consolidation", ttl))
		a.conversions = services.NewUnitConversionResolver(db,
			services.NewCache(config.GetRedisDB(), "conversion", ttl))
		a.costHistory = services.NewCostHistoryCalculator(db, a.conversions)
		loader := etl.NewLoader(db, a.consolidation, a.costHistory)
		a.pipeline = etl.NewPipeline(db, loader)
	})
	return a
}

func uploadDir() string {
	dir := strings.TrimSpace(os.Getenv("UPLOAD_DIR"))
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

func createUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		file, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		if file.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 50MB limit"})
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !spreadsheetExtensions[ext] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type, expected a spreadsheet"})
			return
		}

		dir := uploadDir()
		if err := os.MkdirAll(dir, 0o755); err != nil {
			config.LogError(logger, "uploads", "createUploadHandler", "creating upload dir", dir, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
			return
		}
		storedPath := filepath.Join(dir, utils.GenerateUniqueFilename()+ext)
		if err := c.SaveUploadedFile(file, storedPath); err != nil {
			config.LogError(logger, "uploads", "createUploadHandler", "saving file", storedPath, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store file"})
			return
		}

		upload, err := models.CreateDataUpload(c.Request.Context(), config.GetDB(), file.Filename, storedPath)
		if err != nil {
			config.LogError(logger, "uploads", "createUploadHandler", "creating upload record", file.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create upload"})
			return
		}

		pipeline := app.get().pipeline
		go func(id uuid.UUID) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
			defer cancel()
			if err := pipeline.Run(ctx, id); err != nil {
				config.LogError(logger, "uploads", "createUploadHandler", "pipeline run", id, err)
			}
		}(upload.ID)

		logger.WithFields(logrus.Fields{
			"upload_id": upload.ID,
			"filename":  file.Filename,
		}).Info("upload accepted")
		c.JSON(http.StatusAccepted, gin.H{"data": upload})
	}
}

func getUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}
		upload, err := models.GetDataUpload(c.Request.Context(), config.GetDB(), id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": upload})
	}
}

func getUploadErrorsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}
		if _, err := models.GetDataUpload(c.Request.Context(), config.GetDB(), id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		processingErrors, err := models.GetProcessingErrors(c.Request.Context(), config.GetDB(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": processingErrors})
	}
}

func bindJSON(c *gin.Context, input interface{}) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

func createConsolidationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProductConsolidation
		if !bindJSON(c, &input) {
			return
		}
		rule, err := app.get().consolidation.CreateRule(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": rule})
	}
}

func deleteConsolidationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
			return
		}
		rule, err := app.get().consolidation.DeleteRule(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rule})
	}
}

func createConversionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUnitConversion
		if !bindJSON(c, &input) {
			return
		}
		rule, err := app.get().conversions.CreateConversion(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": rule})
	}
}

func createStandardUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStandardKitchenUnit
		if !bindJSON(c, &input) {
			return
		}
		rule, err := app.get().conversions.CreateStandardUnit(c.Request.Context(), &input)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": rule})
	}
}

type regenerateCostHistoryRequest struct {
	UploadId string `json:"upload_id" binding:"required"`
}

func regenerateCostHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req regenerateCostHistoryRequest
		if !bindJSON(c, &req) {
			return
		}
		id, err := uuid.Parse(req.UploadId)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
			return
		}
		created, err := app.get().costHistory.Regenerate(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"upload_id":    id,
			"rows_created": created,
		})
	}
}
