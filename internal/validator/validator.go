// Package validator checks biometric values against physiologically plausible bounds.
// Every function here is pure.
package validator

import (
	"fmt"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

// Bounds is a closed interval. A zero Bounds disables the check.
type Bounds struct {
	Min float64
	Max float64
}

func (b Bounds) enabled() bool {
	return b.Min != 0 || b.Max != 0
}

func (b Bounds) contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Rule is the hard and soft range for one field
type Rule struct {
	Field string
	Unit  string
	Hard  Bounds
	Soft  Bounds
}

// Check validates a single value against the rule
func (r Rule) Check(v float64) (errMsg, warnMsg string) {
	if r.Hard.enabled() && !r.Hard.contains(v) {
		return fmt.Sprintf("%s %.1f%s outside valid range %.1f-%.1f%s", r.Field, v, r.Unit, r.Hard.Min, r.Hard.Max, r.Unit), ""
	}
	if r.Soft.enabled() && !r.Soft.contains(v) {
		return "", fmt.Sprintf("%s %.1f%s is unusual (expected %.1f-%.1f%s)", r.Field, v, r.Unit, r.Soft.Min, r.Soft.Max, r.Unit)
	}
	return "", ""
}

var (
	BasalBodyTemperature = Rule{Field: "basal body temperature", Unit: "°C", Hard: Bounds{35.5, 38.0}, Soft: Bounds{36.0, 37.5}}
	HeartRateVariability = Rule{Field: "heart rate variability", Unit: "ms", Soft: Bounds{20, 200}}
	RestingHeartRate     = Rule{Field: "resting heart rate", Unit: "bpm", Hard: Bounds{25, 220}, Soft: Bounds{40, 100}}
	OxygenSaturation     = Rule{Field: "oxygen saturation", Unit: "%", Hard: Bounds{50, 100}, Soft: Bounds{90, 100}}
	RespiratoryRate      = Rule{Field: "respiratory rate", Unit: "/min", Hard: Bounds{4, 60}, Soft: Bounds{10, 25}}
	SleepDuration        = Rule{Field: "sleep duration", Unit: "min", Hard: Bounds{0, 1440}, Soft: Bounds{180, 720}}
	Steps                = Rule{Field: "steps", Hard: Bounds{0, 150000}, Soft: Bounds{0, 50000}}
	ActiveCalories       = Rule{Field: "active calories", Unit: "kcal", Hard: Bounds{0, 20000}, Soft: Bounds{0, 5000}}
	SleepQuality         = Rule{Field: "sleep quality", Hard: Bounds{1, 5}}
)

// ValidateSnapshot checks every populated field of the snapshot.
// Errors are range violations, warnings are unusual but plausible values.
func ValidateSnapshot(s *model.HealthDataSnapshot) model.ValidationResult {
	result := model.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}
	if s == nil {
		result.IsValid = true
		return result
	}

	check := func(rule Rule, v float64) {
		errMsg, warnMsg := rule.Check(v)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
		}
		if warnMsg != "" {
			result.Warnings = append(result.Warnings, warnMsg)
		}
	}

	if s.BasalBodyTemperature != nil {
		check(BasalBodyTemperature, *s.BasalBodyTemperature)
	}
	if s.HeartRateVariability != nil {
		check(HeartRateVariability, *s.HeartRateVariability)
	}
	if s.RestingHeartRate != nil {
		check(RestingHeartRate, float64(*s.RestingHeartRate))
	}
	if s.OxygenSaturation != nil {
		check(OxygenSaturation, *s.OxygenSaturation)
	}
	if s.RespiratoryRate != nil {
		check(RespiratoryRate, *s.RespiratoryRate)
	}
	if s.SleepDurationMinutes != nil {
		check(SleepDuration, float64(*s.SleepDurationMinutes))
	}
	if s.Steps != nil {
		check(Steps, float64(*s.Steps))
	}
	if s.ActiveCalories != nil {
		check(ActiveCalories, float64(*s.ActiveCalories))
	}
	if s.SleepQuality != nil {
		check(SleepQuality, float64(*s.SleepQuality))
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// IsValidBBT reports whether a basal body temperature is inside the hard range
func IsValidBBT(celsius float64) bool {
	return BasalBodyTemperature.Hard.contains(celsius)
}

// IsValidHRV reports whether a heart rate variability value is inside the expected range
func IsValidHRV(ms float64) bool {
	return HeartRateVariability.Soft.contains(ms)
}
