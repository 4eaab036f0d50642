package platform

import (
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
	"go.uber.org/zap"
)

var healthKitTypes = map[model.Metric]string{
	model.MetricSteps:                "HKQuantityTypeIdentifierStepCount",
	model.MetricSleep:                "HKCategoryTypeIdentifierSleepAnalysis",
	model.MetricBasalBodyTemperature: "HKQuantityTypeIdentifierBasalBodyTemperature",
	model.MetricHeartRate:            "HKQuantityTypeIdentifierHeartRate",
	model.MetricHeartRateVariability: "HKQuantityTypeIdentifierHeartRateVariabilitySDNN",
	model.MetricOxygenSaturation:     "HKQuantityTypeIdentifierOxygenSaturation",
	model.MetricActiveCalories:       "HKQuantityTypeIdentifierActiveEnergyBurned",
	model.MetricActivityMinutes:      "HKQuantityTypeIdentifierAppleExerciseTime",
	model.MetricRespiratoryRate:      "HKQuantityTypeIdentifierRespiratoryRate",
}

// HKCategoryValueSleepAnalysis
var healthKitSleepStages = map[int]model.SleepStage{
	0: model.SleepStageInBed,
	1: model.SleepStageLight, // asleepUnspecified
	2: model.SleepStageAwake,
	3: model.SleepStageLight, // asleepCore
	4: model.SleepStageDeep,
	5: model.SleepStageREM,
}

// NewHealthKit returns the iOS adapter
func NewHealthKit(bridge Bridge, logger *zap.Logger) Capability {
	return &bridgeAdapter{
		platform:  model.PlatformIOS,
		bridge:    bridge,
		dataTypes: healthKitTypes,
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
		normalize: normalizeHealthKit,
		logger:    logger.With(zap.String("adapter", "healthkit")),
	}
}

func normalizeHealthKit(metric model.Metric, raw model.RawSample) (model.Sample, bool) {
	s := baseSample(metric, raw)

	switch metric {
	case model.MetricSleep:
		if raw.StageCode == nil {
			return s, false
		}
		stage, ok := healthKitSleepStages[*raw.StageCode]
		if !ok {
			return s, false
		}
		s.Stage = stage
		s.Value = float64(s.Minutes())
		s.Unit = "min"
	case model.MetricOxygenSaturation:
		// HealthKit reports percent quantities as a 0-1 fraction
		if raw.Unit == "%" && raw.Value <= 1 {
			s.Value = raw.Value * 100
		}
		s.Unit = "%"
	case model.MetricBasalBodyTemperature:
		if raw.Unit == "degF" {
			s.Value = fahrenheitToCelsius(raw.Value)
		}
		s.Unit = "degC"
	case model.MetricHeartRate:
		s.Unit = "count/min"
	}

	return s, true
}
