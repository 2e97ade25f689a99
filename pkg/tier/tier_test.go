package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilityTable(t *testing.T) {
	tests := []struct {
		tier          Tier
		historyLimit  int
		dailyQuota    int
		memory        bool
		smartInsights bool
		persistent    bool
	}{
		{Free, 30, 20, false, false, false},
		{Basic, 50, 50, true, false, false},
		{Premium, 100, 200, true, true, true},
		{Trial, 30, 30, true, false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			c := Of(tt.tier)
			assert.Equal(t, tt.historyLimit, c.HistoryLimit)
			assert.Equal(t, tt.dailyQuota, c.DailyQuota)
			assert.Equal(t, tt.memory, c.MemoryAllowed)
			assert.Equal(t, tt.smartInsights, c.SmartInsightsAllowed)
			assert.Equal(t, tt.persistent, c.PersistentSession)
		})
	}
}

func TestUnknownTierFallsBackToFree(t *testing.T) {
	assert.Equal(t, Of(Free), Of(Tier("enterprise")))
	assert.False(t, Tier("enterprise").Known())
}

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Tier
	}{
		{"premium", Premium},
		{"  Basic ", Basic},
		{"TRIAL", Trial},
		{"", Free},
		{"gold", Free},
	}

	for _, tt := range tests {
		if got := Parse(tt.input); got != tt.expected {
			t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
