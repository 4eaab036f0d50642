package model

import "time"

// Platform identifies the runtime health store a user's device exposes
type Platform string

const (
	PlatformIOS         Platform = "ios"
	PlatformAndroid     Platform = "android"
	PlatformUnsupported Platform = "unsupported"
)

// Metric is a biometric the health store can be queried for
type Metric string

const (
	MetricSteps                Metric = "steps"
	MetricSleep                Metric = "sleep"
	MetricBasalBodyTemperature Metric = "basal_body_temperature"
	MetricHeartRate            Metric = "heart_rate"
	MetricHeartRateVariability Metric = "heart_rate_variability"
	MetricOxygenSaturation     Metric = "oxygen_saturation"
	MetricActiveCalories       Metric = "active_calories"
	MetricActivityMinutes      Metric = "activity_minutes"
	MetricRespiratoryRate      Metric = "respiratory_rate"
)

// SleepStage is a normalized sleep phase
type SleepStage string

const (
	SleepStageDeep  SleepStage = "deep"
	SleepStageREM   SleepStage = "rem"
	SleepStageLight SleepStage = "light"
	SleepStageAwake SleepStage = "awake"
	SleepStageInBed SleepStage = "in_bed"
)

// RawSample is a sample as the platform bridge reports it, before unit and stage normalization
type RawSample struct {
	DataType   string    `json:"data_type"` // native type identifier, e.g. HKQuantityTypeIdentifierStepCount or StepsRecord
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	StageCode  *int      `json:"stage_code,omitempty"`
	StartAt    time.Time `json:"start_at"`
	EndAt      time.Time `json:"end_at"`
	SourceID   string    `json:"source_id"`
	DeviceName string    `json:"device_name,omitempty"`
}

// Sample is a normalized health store sample
type Sample struct {
	Metric     Metric     `json:"metric"`
	Value      float64    `json:"value"`
	Unit       string     `json:"unit"`
	Stage      SleepStage `json:"stage,omitempty"`
	StartAt    time.Time  `json:"start_at"`
	EndAt      time.Time  `json:"end_at"`
	DeviceName string     `json:"device_name,omitempty"`
}

// Minutes returns the sample duration in whole minutes
func (s Sample) Minutes() int {
	return int(s.EndAt.Sub(s.StartAt).Minutes())
}

// Snapshot source labels that are not device names
const (
	SourceManual = "Manual"
	SourceHybrid = "Hybrid"
)

// HealthDataSnapshot is the outcome of one read of the health store, or of a converted manual record.
// A nil field means the metric was not available.
type HealthDataSnapshot struct {
	BasalBodyTemperature *float64  `json:"basal_body_temperature,omitempty"`
	SleepDurationMinutes *int      `json:"sleep_duration_minutes,omitempty"`
	SleepDeepMinutes     *int      `json:"sleep_deep_minutes,omitempty"`
	SleepREMMinutes      *int      `json:"sleep_rem_minutes,omitempty"`
	SleepLightMinutes    *int      `json:"sleep_light_minutes,omitempty"`
	SleepQuality         *int      `json:"sleep_quality,omitempty"`
	Steps                *int      `json:"steps,omitempty"`
	ActiveCalories       *int      `json:"active_calories,omitempty"`
	ActivityMinutes      *int      `json:"activity_minutes,omitempty"`
	RestingHeartRate     *int      `json:"resting_heart_rate,omitempty"`
	HeartRateVariability *float64  `json:"heart_rate_variability,omitempty"`
	OxygenSaturation     *float64  `json:"oxygen_saturation,omitempty"`
	RespiratoryRate      *float64  `json:"respiratory_rate,omitempty"`
	Source               string    `json:"source"`
	SyncedAt             time.Time `json:"synced_at"`
	DeviceName           *string   `json:"device_name,omitempty"`
}

// DataSource tags where a persisted daily record came from
type DataSource string

const (
	DataSourceWearable DataSource = "wearable"
	DataSourceManual   DataSource = "manual"
	DataSourceHybrid   DataSource = "hybrid"
)

// DailyRecord is the persisted per-user, per-day health record
type DailyRecord struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"user_id"`
	RecordDate           time.Time  `json:"record_date"`
	BasalBodyTemperature *float64   `json:"basal_body_temperature,omitempty"`
	SleepHours           *float64   `json:"sleep_hours,omitempty"`
	SleepQuality         *int       `json:"sleep_quality,omitempty"`
	SleepDeepMinutes     *int       `json:"sleep_deep_minutes,omitempty"`
	SleepREMMinutes      *int       `json:"sleep_rem_minutes,omitempty"`
	SleepLightMinutes    *int       `json:"sleep_light_minutes,omitempty"`
	Steps                *int       `json:"steps,omitempty"`
	ActiveCalories       *int       `json:"active_calories,omitempty"`
	ActivityMinutes      *int       `json:"activity_minutes,omitempty"`
	RestingHeartRate     *int       `json:"resting_heart_rate,omitempty"`
	HeartRateVariability *float64   `json:"heart_rate_variability,omitempty"`
	OxygenSaturation     *float64   `json:"oxygen_saturation,omitempty"`
	RespiratoryRate      *float64   `json:"respiratory_rate,omitempty"`
	WaterGlasses         *int       `json:"water_glasses,omitempty"`
	Mood                 *string    `json:"mood,omitempty"`
	Notes                *string    `json:"notes,omitempty"`
	DataSource           DataSource `json:"data_source"`
	DeviceName           *string    `json:"device_name,omitempty"`
	Version              int64      `json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// RecordFields is a partial daily record; nil fields are left untouched on write
type RecordFields struct {
	BasalBodyTemperature *float64 `json:"basal_body_temperature,omitempty"`
	SleepHours           *float64 `json:"sleep_hours,omitempty"`
	SleepQuality         *int     `json:"sleep_quality,omitempty"`
	SleepDeepMinutes     *int     `json:"sleep_deep_minutes,omitempty"`
	SleepREMMinutes      *int     `json:"sleep_rem_minutes,omitempty"`
	SleepLightMinutes    *int     `json:"sleep_light_minutes,omitempty"`
	Steps                *int     `json:"steps,omitempty"`
	ActiveCalories       *int     `json:"active_calories,omitempty"`
	ActivityMinutes      *int     `json:"activity_minutes,omitempty"`
	RestingHeartRate     *int     `json:"resting_heart_rate,omitempty"`
	HeartRateVariability *float64 `json:"heart_rate_variability,omitempty"`
	OxygenSaturation     *float64 `json:"oxygen_saturation,omitempty"`
	RespiratoryRate      *float64 `json:"respiratory_rate,omitempty"`
	WaterGlasses         *int     `json:"water_glasses,omitempty"`
	Mood                 *string  `json:"mood,omitempty"`
	Notes                *string  `json:"notes,omitempty"`
	DeviceName           *string  `json:"device_name,omitempty"`
}

// ConnectionState is a state of the wearable connection lifecycle
type ConnectionState string

const (
	ConnectionStateUnavailable      ConnectionState = "unavailable"
	ConnectionStateDisconnected     ConnectionState = "disconnected"
	ConnectionStateConnecting       ConnectionState = "connecting"
	ConnectionStateConnected        ConnectionState = "connected"
	ConnectionStateErrorPermissions ConnectionState = "error_permissions"
	ConnectionStateErrorSync        ConnectionState = "error_sync"
	ConnectionStateSyncing          ConnectionState = "syncing"
)

// ConnectionStatus is the durable per-user wearable connection record
type ConnectionStatus struct {
	UserID              string          `json:"user_id"`
	IsConnected         bool            `json:"is_connected"`
	LastSync            *time.Time      `json:"last_sync,omitempty"`
	DeviceType          string          `json:"device_type"`
	PermissionsGranted  bool            `json:"permissions_granted"`
	Platform            Platform        `json:"platform"`
	State               ConnectionState `json:"state"`
	PreviouslyConnected bool            `json:"previously_connected"`
	LastError           *string         `json:"last_error,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RecordSync marks the row connected after a stored wearable read
func (s *ConnectionStatus) RecordSync(at time.Time, platform Platform, data *HealthDataSnapshot) {
	s.IsConnected = true
	s.PermissionsGranted = true
	s.LastSync = &at
	s.Platform = platform
	s.State = ConnectionStateConnected
	s.LastError = nil
	if data == nil {
		return
	}
	if data.DeviceName != nil {
		s.DeviceType = *data.DeviceName
	} else if s.DeviceType == "" {
		s.DeviceType = data.Source
	}
}

// SyncMode records which strategy produced a sync result
type SyncMode string

const (
	SyncModeWearable SyncMode = "wearable"
	SyncModeManual   SyncMode = "manual"
	SyncModeHybrid   SyncMode = "hybrid"
	SyncModeNone     SyncMode = "none"
)

// SyncResult is the outcome of one orchestrated sync. It is never persisted.
type SyncResult struct {
	Success   bool                `json:"success"`
	Data      *HealthDataSnapshot `json:"data,omitempty"`
	Errors    []SyncError         `json:"errors"`
	Warnings  []string            `json:"warnings,omitempty"`
	Mode      SyncMode            `json:"mode"`
	Timestamp time.Time           `json:"timestamp"`
}

// HasErrorType reports whether the result carries an error of the given classification
func (r SyncResult) HasErrorType(t ErrorType) bool {
	for _, e := range r.Errors {
		if e.Type == t {
			return true
		}
	}
	return false
}

// WearablePersisted reports whether the result carries a wearable read that made it into storage
func (r SyncResult) WearablePersisted() bool {
	if r.Mode != SyncModeWearable && r.Mode != SyncModeHybrid {
		return false
	}
	return !r.HasErrorType(ErrorPersistenceFailed)
}

// ValidationResult holds range violations (errors) and unusual-but-plausible values (warnings)
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// SyncEvent is published after every orchestrated sync
type SyncEvent struct {
	UserID     string      `json:"user_id"`
	Date       string      `json:"date"`
	Mode       SyncMode    `json:"mode"`
	Success    bool        `json:"success"`
	ErrorTypes []ErrorType `json:"error_types,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

// PermissionGrant is the health store authorization a device last reported for a user
type PermissionGrant struct {
	UserID      string     `json:"user_id"`
	Platform    Platform   `json:"platform"`
	Granted     bool       `json:"granted"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
