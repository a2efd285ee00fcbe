package bundle

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundlePayload(plans string, history string) json.RawMessage {
	if history == "" {
		history = "[]"
	}
	return json.RawMessage(fmt.Sprintf(`{
		"data": {
			"subscriberId": "sub-42",
			"subscriberActiveAndUnusedPlans": %s,
			"purchasedHistory": %s
		}
	}`, plans, history))
}

func TestParse_GBBalance(t *testing.T) {
	raw := bundlePayload(`[{
		"planName": "Home 1TB",
		"planId": "plan-1",
		"remainingBalance": "12.4 GB",
		"expiresIn": "5 days",
		"isActive": true,
		"isHomePlan": true
	}]`, "")

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "sub-42", r.SubscriberID)
	assert.Equal(t, "Home 1TB", r.PlanName)
	assert.Equal(t, "plan-1", r.PlanID)
	assert.Equal(t, 12.4, r.RemainingBalanceGB)
	wantGB := 12.4
	assert.Equal(t, int64(wantGB*(1<<30)), r.RemainingBalanceBytes)
	assert.Equal(t, 5, r.ExpiresInDays)
	assert.True(t, r.IsActive)
	assert.True(t, r.IsHomePlan)
}

func TestParse_MBBalance(t *testing.T) {
	raw := bundlePayload(`[{
		"planName": "Top-up",
		"planId": "plan-2",
		"remainingBalance": "512 MB",
		"expiresIn": "2 days"
	}]`, "")

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, 0.5, records[0].RemainingBalanceGB)
	assert.Equal(t, int64(512*(1<<20)), records[0].RemainingBalanceBytes)
}

func TestParse_UnparsableBalanceDegradesToZero(t *testing.T) {
	cases := []string{`"unlimited"`, `""`, `"5 TB"`, `"12,4 GB"`, `"GB"`, `"12.4 gb"`, `null`, `42`}

	for _, balance := range cases {
		t.Run(balance, func(t *testing.T) {
			raw := bundlePayload(fmt.Sprintf(`[{
				"planName": "Home 1TB",
				"planId": "plan-1",
				"remainingBalance": %s,
				"expiresIn": "5 days"
			}]`, balance), "")

			records, err := Parse(raw)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Zero(t, records[0].RemainingBalanceGB)
			assert.Zero(t, records[0].RemainingBalanceBytes)
		})
	}
}

func TestParse_UnparsableExpiryDegradesToZero(t *testing.T) {
	cases := []string{`"soon"`, `"3.7 days"`, `""`, `null`, `"-2 days"`}

	for _, expiry := range cases {
		t.Run(expiry, func(t *testing.T) {
			raw := bundlePayload(fmt.Sprintf(`[{
				"planName": "Home 1TB",
				"planId": "plan-1",
				"remainingBalance": "1 GB",
				"expiresIn": %s
			}]`, expiry), "")

			records, err := Parse(raw)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Zero(t, records[0].ExpiresInDays)
		})
	}
}

func TestParse_MultiplePlansShareSubscriberAndSnapshot(t *testing.T) {
	raw := bundlePayload(`[
		{"planName": "A", "planId": "p1", "remainingBalance": "10 GB"},
		{"planName": "B", "planId": "p2", "remainingBalance": "20 GB"},
		{"planName": "C", "planId": "p3", "remainingBalance": "5 MB"}
	]`, "")

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 3)

	for _, r := range records {
		assert.Equal(t, "sub-42", r.SubscriberID)
		assert.JSONEq(t, string(raw), string(r.RawSnapshot))
		assert.False(t, r.IsActive)
		assert.False(t, r.IsHomePlan)
	}
	assert.Equal(t, "p1", records[0].PlanID)
	assert.Equal(t, "p2", records[1].PlanID)
	assert.Equal(t, "p3", records[2].PlanID)
}

func TestParse_TotalUsageFromPurchaseHistory(t *testing.T) {
	raw := bundlePayload(`[{
		"planName": "Home 1TB",
		"planId": "p1",
		"remainingBalance": "400 GB"
	}]`, `[
		{"purchasedHistoryPlans": [
			{"planDisplayName": "Other", "dataUsage": {"totalDataUsage": 111}},
			{"planDisplayName": "Home 1TB", "dataUsage": {"totalDataUsage": 644245094400}}
		]},
		{"purchasedHistoryPlans": [
			{"planDisplayName": "Home 1TB", "dataUsage": {"totalDataUsage": 999}}
		]}
	]`)

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// First match wins; the later history entry must not overwrite it.
	assert.Equal(t, int64(644245094400), records[0].TotalUsageBytes)
}

func TestParse_NoHistoryMatchYieldsZeroUsage(t *testing.T) {
	raw := bundlePayload(`[{
		"planName": "Home 1TB",
		"planId": "p1",
		"remainingBalance": "400 GB"
	}]`, `[{"purchasedHistoryPlans": [{"planDisplayName": "Renamed Plan", "dataUsage": {"totalDataUsage": 7}}]}]`)

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Zero(t, records[0].TotalUsageBytes)
}

func TestParse_EmptyPlansList(t *testing.T) {
	records, err := Parse(bundlePayload(`[]`, ""))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_MissingPlansField(t *testing.T) {
	records, err := Parse(json.RawMessage(`{"data": {"subscriberId": "sub-42"}}`))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParse_PlansFieldNotAList(t *testing.T) {
	raw := json.RawMessage(`{"data": {"subscriberActiveAndUnusedPlans": "oops"}}`)

	records, err := Parse(raw)
	assert.Empty(t, records)

	var structuralErr *StructuralError
	require.ErrorAs(t, err, &structuralErr)
	assert.Equal(t, "subscriberActiveAndUnusedPlans", structuralErr.Field)
}

func TestParse_InvalidJSONIsStructural(t *testing.T) {
	_, err := Parse(json.RawMessage(`{not json`))
	var structuralErr *StructuralError
	require.ErrorAs(t, err, &structuralErr)
}

func TestParse_MalformedPlanEntryDoesNotPoisonBatch(t *testing.T) {
	raw := bundlePayload(`[
		"not an object",
		{"planName": "B", "planId": "p2", "remainingBalance": "20 GB", "isActive": "yes"}
	]`, "")

	records, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Zero(t, records[0].RemainingBalanceGB)
	assert.Empty(t, records[0].PlanID)
	assert.Equal(t, 20.0, records[1].RemainingBalanceGB)
	// isActive of the wrong type defaults to false.
	assert.False(t, records[1].IsActive)
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		text  string
		unit  string
		value float64
		ok    bool
	}{
		{"12.4 GB", "GB", 12.4, true},
		{"  7 GB  ", "GB", 7, true},
		{"512 MB", "MB", 512, true},
		{"0 GB", "GB", 0, true},
		{"GB", "GB", 0, false},
		{"abc GB", "GB", 0, false},
		{"", "GB", 0, false},
	}

	for _, tt := range tests {
		value, ok := parseQuantity(tt.text, tt.unit)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.value, value, tt.text)
	}
}
