package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversionStatus_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantApplied bool
		wantRate    string
		wantActor   string
		wantDate    time.Time
	}{
		{
			name:        "desktop keys with zone-less timestamp",
			body:        `{"conversie_aplicata": true, "data_conversie": "2025-01-05T10:11:12.5", "curs_folosit": 4.9755, "utilizator": "Administrator"}`,
			wantApplied: true,
			wantRate:    "4.9755",
			wantActor:   "Administrator",
			wantDate:    time.Date(2025, 1, 5, 10, 11, 12, 500000000, time.Local),
		},
		{
			name:        "earlier service keys",
			body:        `{"conversion_applied": true, "converted_at": "2025-01-05T10:11:12Z", "rate": "5", "actor": "casier"}`,
			wantApplied: true,
			wantRate:    "5",
			wantActor:   "casier",
			wantDate:    time.Date(2025, 1, 5, 10, 11, 12, 0, time.UTC),
		},
		{
			name:        "unreadable date still applied",
			body:        `{"conversie_aplicata": true, "data_conversie": "ieri", "curs_folosit": "4.97"}`,
			wantApplied: true,
			wantRate:    "4.97",
		},
		{
			name:     "not applied",
			body:     `{"conversie_aplicata": false, "curs_folosit": null}`,
			wantRate: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ConversionStatus
			require.NoError(t, json.Unmarshal([]byte(tt.body), &got))

			assert.Equal(t, tt.wantApplied, got.Applied)
			assert.True(t, got.Rate.Equal(decimal.RequireFromString(tt.wantRate)), "rate %s", got.Rate)
			assert.Equal(t, tt.wantActor, got.Actor)
			assert.True(t, got.ConvertedAt.Equal(tt.wantDate), "date %s", got.ConvertedAt)
		})
	}
}

func TestConversionStatus_WritesDesktopKeys(t *testing.T) {
	out, err := json.Marshal(ConversionStatus{Applied: true, Rate: decimal.RequireFromString("4.97"), Actor: "casier"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, true, raw["conversie_aplicata"])
	assert.Equal(t, "casier", raw["utilizator"])
	assert.Contains(t, raw, "curs_folosit")
	assert.Contains(t, raw, "data_conversie")
}
