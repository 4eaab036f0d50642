package platform

import (
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

var healthConnectTypes = map[model.Metric]string{
	model.MetricSteps:                "StepsRecord",
	model.MetricSleep:                "SleepSessionRecord",
	model.MetricBasalBodyTemperature: "BasalBodyTemperatureRecord",
	model.MetricHeartRate:            "HeartRateRecord",
	model.MetricHeartRateVariability: "HeartRateVariabilityRmssdRecord",
	model.MetricOxygenSaturation:     "OxygenSaturationRecord",
	model.MetricActiveCalories:       "ActiveCaloriesBurnedRecord",
	model.MetricActivityMinutes:      "ExerciseSessionRecord",
	model.MetricRespiratoryRate:      "RespiratoryRateRecord",
}

// SleepSessionRecord.Stage STAGE_TYPE_* constants
var healthConnectSleepStages = map[int]model.SleepStage{
	1: model.SleepStageAwake,
	2: model.SleepStageLight, // sleeping, unspecified
	3: model.SleepStageInBed, // out of bed
	4: model.SleepStageLight,
	5: model.SleepStageDeep,
	6: model.SleepStageREM,
	7: model.SleepStageAwake, // awake in bed
}

// NewHealthConnect returns the Android adapter
func NewHealthConnect(bridge Bridge, logger *zap.Logger) Capability {
	return &bridgeAdapter{
		platform:  model.PlatformAndroid,
		bridge:    bridge,
		dataTypes: healthConnectTypes,
		metrics: []model.Metric{
			model.MetricSteps,
			model.MetricSleep,
			model.MetricBasalBodyTemperature,
			model.MetricHeartRate,
			model.MetricHeartRateVariability,
			model.MetricOxygenSaturation,
			model.MetricActiveCalories,
			model.MetricActivityMinutes,
			model.MetricRespiratoryRate,
		},
		normalize: normalizeHealthConnect,
		logger:    logger.With(zap.String("adapter", "healthconnect")),
	}
}

func normalizeHealthConnect(metric model.Metric, raw model.RawSample) (model.Sample, bool) {
	s := baseSample(metric, raw)

	switch metric {
	case model.MetricSleep:
		if raw.StageCode == nil {
			return s, false
		}
		stage, ok := healthConnectSleepStages[*raw.StageCode]
		if !ok {
			return s, false
		}
		s.Stage = stage
		s.Value = float64(s.Minutes())
		s.Unit = "min"
	case model.MetricActivityMinutes:
		// exercise sessions carry no value, only a time span
		s.Value = float64(s.Minutes())
		s.Unit = "min"
	case model.MetricActiveCalories:
		if raw.Unit == "kJ" || raw.Unit == "kilojoules" {
			s.Value = raw.Value / 4.184
		}
		s.Unit = "kcal"
	case model.MetricBasalBodyTemperature:
		if raw.Unit == "fahrenheit" {
			s.Value = fahrenheitToCelsius(raw.Value)
		}
		s.Unit = "degC"
	}

	return s, true
}
