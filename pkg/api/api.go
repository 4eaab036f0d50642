// Package api holds the HTTP request and response types and the route table of the wearable sync service.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

// UserRequest defines model for UserRequest.
type UserRequest struct {
	UserId openapi_types.UUID `json:"user_id" binding:"required"`
}

// ConnectionResponse defines model for ConnectionResponse.
type ConnectionResponse struct {
	UserId openapi_types.UUID    `json:"user_id"`
	State  model.ConnectionState `json:"state"`
	Sync   *model.SyncResult     `json:"sync,omitempty"`
	Error  *model.SyncError      `json:"error,omitempty"`
}

// SyncRequest defines model for SyncRequest.
type SyncRequest struct {
	UserId openapi_types.UUID  `json:"user_id" binding:"required"`
	Date   *openapi_types.Date `json:"date,omitempty"`
}

// StatusResponse defines model for StatusResponse.
type StatusResponse struct {
	UserId     openapi_types.UUID      `json:"user_id"`
	State      model.ConnectionState   `json:"state"`
	Connection *model.ConnectionStatus `json:"connection,omitempty"`
	AutoSync   bool                    `json:"auto_sync"`
	Scheduler  string                  `json:"scheduler"`
	LastResult *model.SyncResult       `json:"last_result,omitempty"`
}

// SchedulerResponse defines model for SchedulerResponse.
type SchedulerResponse struct {
	UserId  openapi_types.UUID `json:"user_id"`
	Running bool               `json:"running"`
}

// SampleUpload defines model for SampleUpload.
type SampleUpload struct {
	DataType   string    `json:"data_type" binding:"required"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	StageCode  *int      `json:"stage_code,omitempty"`
	StartAt    time.Time `json:"start_at" binding:"required"`
	EndAt      time.Time `json:"end_at" binding:"required"`
	SourceId   string    `json:"source_id" binding:"required"`
	DeviceName *string   `json:"device_name,omitempty"`
}

// SamplesUploadRequest defines model for SamplesUploadRequest.
type SamplesUploadRequest struct {
	UserId   openapi_types.UUID `json:"user_id" binding:"required"`
	Platform string             `json:"platform" binding:"required,oneof=ios android"`
	Samples  []SampleUpload     `json:"samples" binding:"required,min=1,dive"`
}

// SamplesUploadResponse defines model for SamplesUploadResponse.
type SamplesUploadResponse struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}

// PermissionsRequest defines model for PermissionsRequest.
type PermissionsRequest struct {
	UserId   openapi_types.UUID `json:"user_id" binding:"required"`
	Platform string             `json:"platform" binding:"required,oneof=ios android"`
	Granted  *bool              `json:"granted" binding:"required"`
}

// PermissionsResponse defines model for PermissionsResponse.
type PermissionsResponse struct {
	UserId   openapi_types.UUID `json:"user_id"`
	Platform string             `json:"platform"`
	Granted  bool               `json:"granted"`
}

// ManualRecordRequest defines model for ManualRecordRequest.
type ManualRecordRequest struct {
	UserId openapi_types.UUID  `json:"user_id" binding:"required"`
	Date   *openapi_types.Date `json:"date,omitempty"`
	model.RecordFields
}

// RecordResponse defines model for RecordResponse.
type RecordResponse struct {
	Record     *model.DailyRecord      `json:"record"`
	Validation *model.ValidationResult `json:"validation,omitempty"`
}

// GetApiV1WearableStatusParams defines parameters for GetApiV1WearableStatus.
type GetApiV1WearableStatusParams struct {
	UserId openapi_types.UUID `form:"user_id" json:"user_id"`
}

// GetApiV1RecordsParams defines parameters for GetApiV1Records.
type GetApiV1RecordsParams struct {
	UserId openapi_types.UUID  `form:"user_id" json:"user_id"`
	Date   *openapi_types.Date `form:"date,omitempty" json:"date,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	GetHealth(c *gin.Context)
	PostApiV1WearableConnect(c *gin.Context)
	PostApiV1WearableReconnect(c *gin.Context)
	PostApiV1WearableDisconnect(c *gin.Context)
	PostApiV1WearableSync(c *gin.Context)
	GetApiV1WearableStatus(c *gin.Context, params GetApiV1WearableStatusParams)
	PostApiV1WearableSchedulerStart(c *gin.Context)
	PostApiV1WearableSchedulerStop(c *gin.Context)
	PostApiV1WearableSamples(c *gin.Context)
	PutApiV1WearablePermissions(c *gin.Context)
	GetApiV1Records(c *gin.Context, params GetApiV1RecordsParams)
	PutApiV1Records(c *gin.Context)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func paramError(c *gin.Context, name string, err error) {
	details := err.Error()
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("Invalid format for parameter %s", name),
		Details: &details,
	})
}

// GetApiV1WearableStatus operation middleware
func (siw *ServerInterfaceWrapper) GetApiV1WearableStatus(c *gin.Context) {
	var params GetApiV1WearableStatusParams

	if err := runtime.BindQueryParameter("form", true, true, "user_id", c.Request.URL.Query(), &params.UserId); err != nil {
		paramError(c, "user_id", err)
		return
	}

	siw.Handler.GetApiV1WearableStatus(c, params)
}

// GetApiV1Records operation middleware
func (siw *ServerInterfaceWrapper) GetApiV1Records(c *gin.Context) {
	var params GetApiV1RecordsParams

	if err := runtime.BindQueryParameter("form", true, true, "user_id", c.Request.URL.Query(), &params.UserId); err != nil {
		paramError(c, "user_id", err)
		return
	}

	if err := runtime.BindQueryParameter("form", true, false, "date", c.Request.URL.Query(), &params.Date); err != nil {
		paramError(c, "date", err)
		return
	}

	siw.Handler.GetApiV1Records(c, params)
}

// RegisterHandlers adds each server route to the router.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{Handler: si}

	router.GET("/health", si.GetHealth)
	router.POST("/api/v1/wearable/connect", si.PostApiV1WearableConnect)
	router.POST("/api/v1/wearable/reconnect", si.PostApiV1WearableReconnect)
	router.POST("/api/v1/wearable/disconnect", si.PostApiV1WearableDisconnect)
	router.POST("/api/v1/wearable/sync", si.PostApiV1WearableSync)
	router.GET("/api/v1/wearable/status", wrapper.GetApiV1WearableStatus)
	router.POST("/api/v1/wearable/scheduler/start", si.PostApiV1WearableSchedulerStart)
	router.POST("/api/v1/wearable/scheduler/stop", si.PostApiV1WearableSchedulerStop)
	router.POST("/api/v1/wearable/samples", si.PostApiV1WearableSamples)
	router.PUT("/api/v1/wearable/permissions", si.PutApiV1WearablePermissions)
	router.GET("/api/v1/records", wrapper.GetApiV1Records)
	router.PUT("/api/v1/records", si.PutApiV1Records)
}
