// Package bundle normalizes the loosely typed upstream bundle payload
// into usage records.
package bundle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	usagedomain "github.com/bundlewatch/bundlewatch/internal/usage/domain"
	"gorm.io/datatypes"
)

// StructuralError reports a top-level payload shape the parser cannot
// traverse. It aborts the whole parse; per-field problems never do.
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("bundle structure invalid: %s: %s", e.Field, e.Reason)
}

const (
	bytesPerGB = 1 << 30
	bytesPerMB = 1 << 20
)

// Parse converts a raw bundle response into zero or more usage records,
// one per active-or-unused plan entry. Malformed individual fields
// degrade to zero values so a single bad plan cannot poison the batch;
// only an untraversable top-level shape returns an error.
//
// Every record carries the entire raw response as its audit snapshot,
// not just its own plan entry.
func Parse(raw json.RawMessage) ([]usagedomain.UsageRecord, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, &StructuralError{Field: "response", Reason: err.Error()}
	}

	data := asObject(root["data"])

	plansField, present := data["subscriberActiveAndUnusedPlans"]
	if !present || plansField == nil {
		return nil, nil
	}
	plans, ok := plansField.([]any)
	if !ok {
		return nil, &StructuralError{Field: "subscriberActiveAndUnusedPlans", Reason: "not a list"}
	}

	subscriberID := asString(data["subscriberId"])
	snapshot := datatypes.JSON(raw)

	records := make([]usagedomain.UsageRecord, 0, len(plans))
	for _, entry := range plans {
		plan := asObject(entry)

		record := usagedomain.UsageRecord{
			SubscriberID: subscriberID,
			PlanName:     asString(plan["planName"]),
			PlanID:       asString(plan["planId"]),
			IsActive:     asBool(plan["isActive"]),
			IsHomePlan:   asBool(plan["isHomePlan"]),
			RawSnapshot:  snapshot,
		}

		balance := asString(plan["remainingBalance"])
		switch {
		case strings.Contains(balance, "GB"):
			if gb, ok := parseQuantity(balance, "GB"); ok {
				record.RemainingBalanceGB = gb
				record.RemainingBalanceBytes = int64(gb * bytesPerGB)
			}
		case strings.Contains(balance, "MB"):
			if mb, ok := parseQuantity(balance, "MB"); ok {
				record.RemainingBalanceGB = mb / 1024
				record.RemainingBalanceBytes = int64(mb * bytesPerMB)
			}
		}

		if days, ok := parseWholeDays(asString(plan["expiresIn"])); ok {
			record.ExpiresInDays = days
		}

		record.TotalUsageBytes = totalUsageFor(data, record.PlanName)

		records = append(records, record)
	}

	return records, nil
}

// parseQuantity strips the unit suffix and parses the remainder as a
// number. The zero-on-failure policy of every textual upstream field
// lives here.
func parseQuantity(text, unit string) (float64, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(text, unit, ""))
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// parseWholeDays parses an "<integer> days" expiry. Fractional values
// are unparsable, matching upstream's own formatting.
func parseWholeDays(text string) (int, bool) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(text, "days", ""))
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// totalUsageFor scans the nested purchase history for the first plan
// whose display name matches exactly. Upstream provides no stable
// identifier joining a plan to its history entry, so an exact string
// match is the best available key; no match means zero.
func totalUsageFor(data map[string]any, planName string) int64 {
	if planName == "" {
		return 0
	}
	history, ok := data["purchasedHistory"].([]any)
	if !ok {
		return 0
	}
	for _, h := range history {
		plans, ok := asObject(h)["purchasedHistoryPlans"].([]any)
		if !ok {
			continue
		}
		for _, p := range plans {
			hp := asObject(p)
			if asString(hp["planDisplayName"]) != planName {
				continue
			}
			if usage, ok := asObject(hp["dataUsage"])["totalDataUsage"].(float64); ok {
				return int64(usage)
			}
			return 0
		}
	}
	return 0
}

func asObject(v any) map[string]any {
	obj, _ := v.(map[string]any)
	return obj
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
