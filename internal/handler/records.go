package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/validator"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// RecordHandler implements the daily record endpoints
type RecordHandler struct {
	service  RecordServiceInterface
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(service RecordServiceInterface, location *time.Location, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		service:  service,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *RecordHandler) day(d *time.Time) time.Time {
	if d == nil {
		return h.now()
	}
	return *d
}

// GetApiV1Records returns the user's record for a day, today by default
func (h *RecordHandler) GetApiV1Records(c *gin.Context, params api.GetApiV1RecordsParams) {
	userID := uuidToString(params.UserId)
	c.Set("user_id", userID)

	rec, err := h.service.GetRecord(c.Request.Context(), userID, h.day(datePtrInLocation(params.Date, h.location)))
	if err != nil {
		h.logger.Error("failed to get daily record",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to get daily record",
			Details: stringPtr(err.Error()),
		})
		return
	}

	if rec == nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "No record for this day",
		})
		return
	}

	c.JSON(http.StatusOK, api.RecordResponse{Record: rec})
}

// PutApiV1Records applies a manual entry. Only provided fields are overwritten.
// Out-of-range values are stored and reported in the validation block.
func (h *RecordHandler) PutApiV1Records(c *gin.Context) {
	var req api.ManualRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return
	}

	userID := uuidToString(req.UserId)
	c.Set("user_id", userID)

	if req.RecordFields == (model.RecordFields{}) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "At least one record field is required",
		})
		return
	}

	rec, err := h.service.SaveManual(c.Request.Context(), userID, h.day(datePtrInLocation(req.Date, h.location)), req.RecordFields)
	if err != nil {
		h.logger.Error("failed to save daily record",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to save daily record",
			Details: stringPtr(err.Error()),
		})
		return
	}

	validation := validator.ValidateSnapshot(model.SnapshotFromRecord(rec, h.now()))
	if !validation.IsValid || len(validation.Warnings) > 0 {
		h.logger.Warn("manual record has unusual values",
			zap.String("user_id", userID),
			zap.Strings("errors", validation.Errors),
			zap.Strings("warnings", validation.Warnings),
		)
	}

	c.JSON(http.StatusOK, api.RecordResponse{
		Record:     rec,
		Validation: &validation,
	})
}
