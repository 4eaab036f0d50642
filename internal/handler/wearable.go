package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/service"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/api"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

// WearableHandler implements the wearable connection and sync endpoints
type WearableHandler struct {
	connections ConnectionServiceInterface
	scheduler   SchedulerInterface
	statuses    ConnectionStatusReader
	store       HealthDataStore
	audit       AuditLoggerInterface
	location    *time.Location
	logger      *zap.Logger
}

// NewWearableHandler creates a new WearableHandler
func NewWearableHandler(
	connections ConnectionServiceInterface,
	scheduler SchedulerInterface,
	statuses ConnectionStatusReader,
	store HealthDataStore,
	auditLogger AuditLoggerInterface,
	location *time.Location,
	logger *zap.Logger,
) *WearableHandler {
	return &WearableHandler{
		connections: connections,
		scheduler:   scheduler,
		statuses:    statuses,
		store:       store,
		audit:       auditLogger,
		location:    location,
		logger:      logger,
	}
}

func (h *WearableHandler) bindUser(c *gin.Context) (api.UserRequest, bool) {
	var req api.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, api.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Invalid request body",
			Details: stringPtr(err.Error()),
		})
		return req, false
	}
	c.Set("user_id", uuidToString(req.UserId))
	return req, true
}

func (h *WearableHandler) connectionResponse(c *gin.Context, req api.UserRequest, outcome service.ConnectionOutcome) {
	c.JSON(http.StatusOK, api.ConnectionResponse{
		UserId: req.UserId,
		State:  outcome.State,
		Sync:   outcome.Sync,
		Error:  outcome.Error,
	})
}

// PostApiV1WearableConnect requests health store access and runs the test sync
func (h *WearableHandler) PostApiV1WearableConnect(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	outcome := h.connections.Connect(c.Request.Context(), uuidToString(req.UserId))
	h.connectionResponse(c, req, outcome)
}

// PostApiV1WearableReconnect retries the connection after a failed sync
func (h *WearableHandler) PostApiV1WearableReconnect(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	outcome := h.connections.Reconnect(c.Request.Context(), uuidToString(req.UserId))
	h.connectionResponse(c, req, outcome)
}

// PostApiV1WearableDisconnect stops auto-sync and clears the connection
func (h *WearableHandler) PostApiV1WearableDisconnect(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	userID := uuidToString(req.UserId)

	h.scheduler.Stop(userID)
	state := h.connections.Disconnect(c.Request.Context(), userID)

	c.JSON(http.StatusOK, api.ConnectionResponse{
		UserId: req.UserId,
		State:  state,
	})
}

// PostApiV1WearableSync runs one sync now, sharing the session lock with auto-sync
func (h *WearableHandler) PostApiV1WearableSync(c *gin.Context) {
	var req api.SyncRequest
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

	result, ran := h.scheduler.TriggerNow(c.Request.Context(), userID, datePtrInLocation(req.Date, h.location))
	if !ran {
		c.JSON(http.StatusConflict, api.ErrorResponse{
			Code:    "SYNC_IN_PROGRESS",
			Message: "A sync is already running for this user",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetApiV1WearableStatus returns the persisted connection status with the live state
func (h *WearableHandler) GetApiV1WearableStatus(c *gin.Context, params api.GetApiV1WearableStatusParams) {
	userID := uuidToString(params.UserId)
	c.Set("user_id", userID)

	status, err := h.statuses.GetConnectionStatus(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to get connection status",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to get connection status",
			Details: stringPtr(err.Error()),
		})
		return
	}

	schedulerStatus, last := h.scheduler.Status(userID)

	c.JSON(http.StatusOK, api.StatusResponse{
		UserId:     params.UserId,
		State:      h.connections.State(c.Request.Context(), userID),
		Connection: status,
		AutoSync:   h.scheduler.Running(userID),
		Scheduler:  string(schedulerStatus),
		LastResult: last,
	})
}

// PostApiV1WearableSchedulerStart starts auto-sync for a previously connected user
func (h *WearableHandler) PostApiV1WearableSchedulerStart(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	userID := uuidToString(req.UserId)

	running, err := h.scheduler.Start(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("failed to start auto-sync",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to start auto-sync",
			Details: stringPtr(err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, api.SchedulerResponse{UserId: req.UserId, Running: running})
}

// PostApiV1WearableSchedulerStop stops auto-sync for the user
func (h *WearableHandler) PostApiV1WearableSchedulerStop(c *gin.Context) {
	req, ok := h.bindUser(c)
	if !ok {
		return
	}
	h.scheduler.Stop(uuidToString(req.UserId))
	c.JSON(http.StatusOK, api.SchedulerResponse{UserId: req.UserId, Running: false})
}

// PostApiV1WearableSamples stores raw samples uploaded by the mobile app
func (h *WearableHandler) PostApiV1WearableSamples(c *gin.Context) {
	var req api.SamplesUploadRequest
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

	samples := make([]model.RawSample, 0, len(req.Samples))
	for _, s := range req.Samples {
		if s.EndAt.Before(s.StartAt) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Sample ends before it starts",
				Details: stringPtr(s.SourceId),
			})
			return
		}
		samples = append(samples, model.RawSample{
			DataType:   s.DataType,
			Value:      s.Value,
			Unit:       s.Unit,
			StageCode:  s.StageCode,
			StartAt:    s.StartAt,
			EndAt:      s.EndAt,
			SourceID:   s.SourceId,
			DeviceName: derefString(s.DeviceName),
		})
	}

	stored, err := h.store.SaveSamples(c.Request.Context(), userID, model.Platform(req.Platform), samples)
	if err != nil {
		h.logger.Error("failed to save samples",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.Int("count", len(samples)),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to save samples",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.auditUpload(c, userID, audit.ResourceHealthSamples, map[string]interface{}{
		"platform": req.Platform,
		"received": len(samples),
		"stored":   stored,
	})

	c.JSON(http.StatusCreated, api.SamplesUploadResponse{
		Received: len(samples),
		Stored:   stored,
	})
}

// PutApiV1WearablePermissions records the grant the device reports
func (h *WearableHandler) PutApiV1WearablePermissions(c *gin.Context) {
	var req api.PermissionsRequest
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

	if err := h.store.SavePermissionGrant(c.Request.Context(), userID, model.Platform(req.Platform), *req.Granted); err != nil {
		h.logger.Error("failed to save permission grant",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "Failed to save permission grant",
			Details: stringPtr(err.Error()),
		})
		return
	}

	h.auditUpload(c, userID, audit.ResourcePermissionGrant, map[string]interface{}{
		"platform": req.Platform,
		"granted":  *req.Granted,
	})

	c.JSON(http.StatusOK, api.PermissionsResponse{
		UserId:   req.UserId,
		Platform: req.Platform,
		Granted:  *req.Granted,
	})
}

func (h *WearableHandler) auditUpload(c *gin.Context, userID string, resource audit.ResourceType, data map[string]interface{}) {
	if err := h.audit.Log(c.Request.Context(), audit.AuditLog{
		UserID:         userID,
		OperationType:  audit.OperationUpdate,
		ResourceType:   resource,
		ResourceID:     userID,
		AdditionalData: data,
	}); err != nil {
		h.logger.Warn("failed to audit upload",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("resource_type", string(resource)),
		)
	}
}
