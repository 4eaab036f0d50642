package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/pkg/model"
)

var (
	success = color.New(color.FgGreen, color.Bold).SprintFunc()
	failure = color.New(color.FgRed, color.Bold).SprintFunc()
	warning = color.New(color.FgYellow).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSyncResult(w io.Writer, r model.SyncResult) {
	if r.Success {
		fmt.Fprintf(w, "%s mode=%s\n", success("sync ok"), r.Mode)
	} else {
		fmt.Fprintf(w, "%s mode=%s\n", failure("sync failed"), r.Mode)
	}

	if r.Data != nil {
		fmt.Fprintf(w, "  source: %s\n", r.Data.Source)
		metric(w, "steps", r.Data.Steps)
		metric(w, "sleep minutes", r.Data.SleepDurationMinutes)
		metric(w, "resting heart rate", r.Data.RestingHeartRate)
		metric(w, "active calories", r.Data.ActiveCalories)
		metricFloat(w, "basal body temperature", r.Data.BasalBodyTemperature)
		metricFloat(w, "heart rate variability", r.Data.HeartRateVariability)
		metricFloat(w, "oxygen saturation", r.Data.OxygenSaturation)
	}

	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s %s: %s\n", failure("x"), e.Type, e.Message)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warning("!"), warn)
	}
}

func metric(w io.Writer, name string, v *int) {
	if v != nil {
		fmt.Fprintf(w, "  %s: %d\n", name, *v)
	}
}

func metricFloat(w io.Writer, name string, v *float64) {
	if v != nil {
		fmt.Fprintf(w, "  %s: %.1f\n", name, *v)
	}
}

func printStatus(w io.Writer, s *model.ConnectionStatus) {
	state := string(s.State)
	if s.IsConnected {
		state = success(state)
	} else if s.LastError != nil {
		state = failure(state)
	}

	fmt.Fprintf(w, "user:        %s\n", s.UserID)
	fmt.Fprintf(w, "state:       %s\n", state)
	fmt.Fprintf(w, "platform:    %s\n", s.Platform)
	fmt.Fprintf(w, "permissions: %t\n", s.PermissionsGranted)
	if s.LastSync != nil {
		fmt.Fprintf(w, "last sync:   %s\n", s.LastSync.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "last sync:   %s\n", faint("never"))
	}
	if s.LastError != nil {
		fmt.Fprintf(w, "last error:  %s\n", failure(*s.LastError))
	}
}

func printAuditLogs(w io.Writer, logs []audit.AuditLog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, faint("no audit entries"))
		return
	}
	for _, l := range logs {
		fmt.Fprintf(w, "%s  %-6s %-24s %s\n", l.Timestamp.Format(time.RFC3339), l.OperationType, l.ResourceType, faint(l.ResourceID))
	}
}
