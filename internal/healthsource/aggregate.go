package healthsource

import (
	"math"
	"time"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// restingHeartRateCeiling excludes exercise samples from the resting estimate
const restingHeartRateCeiling = 100.0

// SleepQuality bands the share of deep+REM sleep into a 1-5 score
func SleepQuality(deepMinutes, remMinutes, totalMinutes int) int {
	if totalMinutes <= 0 {
		return 1
	}
	ratio := float64(deepMinutes+remMinutes) / float64(totalMinutes)
	switch {
	case ratio >= 0.40:
		return 5
	case ratio >= 0.30:
		return 4
	case ratio >= 0.20:
		return 3
	case ratio >= 0.10:
		return 2
	default:
		return 1
	}
}

// RestingHeartRate returns the lowest heart-rate sample under 100 bpm.
// This is a heuristic, not a clinical resting-HR computation.
func RestingHeartRate(samples []model.Sample) *int {
	lowest := math.Inf(1)
	for _, s := range samples {
		if s.Value > 0 && s.Value < restingHeartRateCeiling && s.Value < lowest {
			lowest = s.Value
		}
	}
	if math.IsInf(lowest, 1) {
		return nil
	}
	bpm := int(math.Round(lowest))
	return &bpm
}

// sleepTotals sums stage minutes; awake and in-bed time do not count as sleep
func sleepTotals(samples []model.Sample) (deep, rem, light int) {
	for _, s := range samples {
		minutes := int(math.Round(s.Value))
		switch s.Stage {
		case model.SleepStageDeep:
			deep += minutes
		case model.SleepStageREM:
			rem += minutes
		case model.SleepStageLight:
			light += minutes
		}
	}
	return deep, rem, light
}

func sum(samples []model.Sample) float64 {
	total := 0.0
	for _, s := range samples {
		total += s.Value
	}
	return total
}

func mean(samples []model.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	return sum(samples) / float64(len(samples))
}

func latest(samples []model.Sample) model.Sample {
	out := samples[0]
	for _, s := range samples[1:] {
		if s.EndAt.After(out.EndAt) {
			out = s
		}
	}
	return out
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

func roundInt(v float64) *int {
	i := int(math.Round(v))
	return &i
}

func roundFloat(v float64, decimals int) *float64 {
	f := roundTo(v, decimals)
	return &f
}

// buildSnapshot folds per-metric samples into one snapshot, visiting metrics in order.
// Metrics with no samples stay nil.
func buildSnapshot(order []model.Metric, samples map[model.Metric][]model.Sample, defaultSource string, syncedAt time.Time) *model.HealthDataSnapshot {
	snapshot := &model.HealthDataSnapshot{
		Source:   defaultSource,
		SyncedAt: syncedAt,
	}

	for _, metric := range order {
		list := samples[metric]
		if len(list) == 0 {
			continue
		}
		if snapshot.DeviceName == nil {
			for _, s := range list {
				if s.DeviceName != "" {
					name := s.DeviceName
					snapshot.DeviceName = &name
					break
				}
			}
		}

		switch metric {
		case model.MetricSteps:
			snapshot.Steps = roundInt(sum(list))
		case model.MetricSleep:
			deep, rem, light := sleepTotals(list)
			total := deep + rem + light
			if total == 0 {
				continue
			}
			quality := SleepQuality(deep, rem, total)
			snapshot.SleepDurationMinutes = &total
			snapshot.SleepDeepMinutes = &deep
			snapshot.SleepREMMinutes = &rem
			snapshot.SleepLightMinutes = &light
			snapshot.SleepQuality = &quality
		case model.MetricBasalBodyTemperature:
			snapshot.BasalBodyTemperature = roundFloat(latest(list).Value, 2)
		case model.MetricHeartRate:
			snapshot.RestingHeartRate = RestingHeartRate(list)
		case model.MetricHeartRateVariability:
			snapshot.HeartRateVariability = roundFloat(mean(list), 1)
		case model.MetricOxygenSaturation:
			snapshot.OxygenSaturation = roundFloat(mean(list), 1)
		case model.MetricActiveCalories:
			snapshot.ActiveCalories = roundInt(sum(list))
		case model.MetricActivityMinutes:
			snapshot.ActivityMinutes = roundInt(sum(list))
		case model.MetricRespiratoryRate:
			snapshot.RespiratoryRate = roundFloat(mean(list), 1)
		}
	}

	if snapshot.DeviceName != nil {
		snapshot.Source = *snapshot.DeviceName
	}
	return snapshot
}
