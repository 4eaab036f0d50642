package model

import (
	"math"
	"time"
)

// MetricFieldCount returns the number of populated biometric fields, metadata excluded
func (s *HealthDataSnapshot) MetricFieldCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, set := range []bool{
		s.BasalBodyTemperature != nil,
		s.SleepDurationMinutes != nil,
		s.SleepDeepMinutes != nil,
		s.SleepREMMinutes != nil,
		s.SleepLightMinutes != nil,
		s.SleepQuality != nil,
		s.Steps != nil,
		s.ActiveCalories != nil,
		s.ActivityMinutes != nil,
		s.RestingHeartRate != nil,
		s.HeartRateVariability != nil,
		s.OxygenSaturation != nil,
		s.RespiratoryRate != nil,
	} {
		if set {
			count++
		}
	}
	return count
}

// HasData reports whether the snapshot carries anything beyond source/timestamp metadata
func (s *HealthDataSnapshot) HasData() bool {
	return s.MetricFieldCount() > 0
}

// WithSource returns a copy of the snapshot labelled with a different source
func (s HealthDataSnapshot) WithSource(source string) *HealthDataSnapshot {
	s.Source = source
	return &s
}

// RecordFieldsFromSnapshot maps the populated snapshot fields onto record columns.
// Fields the snapshot does not populate stay nil so a merge leaves them untouched.
func RecordFieldsFromSnapshot(s *HealthDataSnapshot) RecordFields {
	f := RecordFields{
		BasalBodyTemperature: s.BasalBodyTemperature,
		SleepQuality:         s.SleepQuality,
		SleepDeepMinutes:     s.SleepDeepMinutes,
		SleepREMMinutes:      s.SleepREMMinutes,
		SleepLightMinutes:    s.SleepLightMinutes,
		Steps:                s.Steps,
		ActiveCalories:       s.ActiveCalories,
		ActivityMinutes:      s.ActivityMinutes,
		RestingHeartRate:     s.RestingHeartRate,
		HeartRateVariability: s.HeartRateVariability,
		OxygenSaturation:     s.OxygenSaturation,
		RespiratoryRate:      s.RespiratoryRate,
		DeviceName:           s.DeviceName,
	}
	if s.SleepDurationMinutes != nil {
		hours := math.Round(float64(*s.SleepDurationMinutes)/60*10) / 10
		f.SleepHours = &hours
	}
	return f
}

// SnapshotFromRecord converts a persisted record into a snapshot labelled Manual
func SnapshotFromRecord(r *DailyRecord, syncedAt time.Time) *HealthDataSnapshot {
	s := &HealthDataSnapshot{
		BasalBodyTemperature: r.BasalBodyTemperature,
		SleepDeepMinutes:     r.SleepDeepMinutes,
		SleepREMMinutes:      r.SleepREMMinutes,
		SleepLightMinutes:    r.SleepLightMinutes,
		SleepQuality:         r.SleepQuality,
		Steps:                r.Steps,
		ActiveCalories:       r.ActiveCalories,
		ActivityMinutes:      r.ActivityMinutes,
		RestingHeartRate:     r.RestingHeartRate,
		HeartRateVariability: r.HeartRateVariability,
		OxygenSaturation:     r.OxygenSaturation,
		RespiratoryRate:      r.RespiratoryRate,
		Source:               SourceManual,
		SyncedAt:             syncedAt,
		DeviceName:           r.DeviceName,
	}
	if r.SleepHours != nil {
		minutes := int(math.Round(*r.SleepHours * 60))
		s.SleepDurationMinutes = &minutes
	}
	return s
}

// Apply overwrites every record column the fields populate and returns how many changed
func (r *DailyRecord) Apply(f RecordFields) int {
	n := 0
	setF := func(dst **float64, src *float64) {
		if src != nil {
			v := *src
			*dst = &v
			n++
		}
	}
	setI := func(dst **int, src *int) {
		if src != nil {
			v := *src
			*dst = &v
			n++
		}
	}
	setS := func(dst **string, src *string) {
		if src != nil {
			v := *src
			*dst = &v
			n++
		}
	}

	setF(&r.BasalBodyTemperature, f.BasalBodyTemperature)
	setF(&r.SleepHours, f.SleepHours)
	setI(&r.SleepQuality, f.SleepQuality)
	setI(&r.SleepDeepMinutes, f.SleepDeepMinutes)
	setI(&r.SleepREMMinutes, f.SleepREMMinutes)
	setI(&r.SleepLightMinutes, f.SleepLightMinutes)
	setI(&r.Steps, f.Steps)
	setI(&r.ActiveCalories, f.ActiveCalories)
	setI(&r.ActivityMinutes, f.ActivityMinutes)
	setI(&r.RestingHeartRate, f.RestingHeartRate)
	setF(&r.HeartRateVariability, f.HeartRateVariability)
	setF(&r.OxygenSaturation, f.OxygenSaturation)
	setF(&r.RespiratoryRate, f.RespiratoryRate)
	setI(&r.WaterGlasses, f.WaterGlasses)
	setS(&r.Mood, f.Mood)
	setS(&r.Notes, f.Notes)
	setS(&r.DeviceName, f.DeviceName)

	return n
}
