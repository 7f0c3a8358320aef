package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckTradeRisk_PositionValueLimit(t *testing.T) {
	limits := DefaultPositionLimits()
	limits.MaxPositionValue = 25000
	m := NewManager(limits, nil)

	positions := map[string]float64{"AAPL": 15000}
	ok, reason := m.CheckTradeRisk("AAPL", 15000, 200000, positions)

	assert.False(t, ok)
	assert.Contains(t, reason, "position value")
}

func TestCheckTradeRisk_ConcentrationLimit(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	// 25% of a 100k portfolio against the default 20% cap.
	ok, reason := m.CheckTradeRisk("TSLA", 25000, 100000, nil)

	assert.False(t, ok)
	assert.Contains(t, reason, "concentration")
}

func TestCheckTradeRisk_ExposureLimit(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	positions := map[string]float64{
		"A": 10000, "B": 10000, "C": 10000, "D": 10000, "E": 10000,
		"F": 10000, "G": 10000, "H": 10000, "I": 10000,
	}
	ok, reason := m.CheckTradeRisk("NEW", 15000, 100000, positions)

	assert.False(t, ok)
	assert.Contains(t, reason, "exposure")
}

func TestCheckTradeRisk_FirstBreachedLimitDecides(t *testing.T) {
	limits := DefaultPositionLimits()
	limits.MaxPositionValue = 10000
	m := NewManager(limits, nil)

	// Breaches both the position value and the concentration limit; the
	// position value check runs first and names the reason.
	ok, reason := m.CheckTradeRisk("NVDA", 30000, 50000, nil)

	assert.False(t, ok)
	assert.Contains(t, reason, "position value")
}

func TestCheckTradeRisk_Approval(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	positions := map[string]float64{"AAPL": 5000}
	ok, reason := m.CheckTradeRisk("MSFT", 10000, 100000, positions)

	assert.True(t, ok)
	assert.Equal(t, "trade approved", reason)
}

func TestCheckTradeRisk_IsStateless(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)
	positions := map[string]float64{"AAPL": 5000}

	ok1, reason1 := m.CheckTradeRisk("MSFT", 10000, 100000, positions)
	ok2, reason2 := m.CheckTradeRisk("MSFT", 10000, 100000, positions)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, reason1, reason2)
}

func TestCheckTradeRisk_BadInputs(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	ok, _ := m.CheckTradeRisk("AAPL", 1000, 0, nil)
	assert.False(t, ok, "empty portfolio cannot take on risk")

	ok, _ = m.CheckTradeRisk("AAPL", -1000, 100000, nil)
	assert.False(t, ok)
}

func TestValidatePositionSize(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	ok, _ := m.ValidatePositionSize(10000, 100000)
	assert.True(t, ok)

	ok, reason := m.ValidatePositionSize(60000, 1000000)
	assert.False(t, ok)
	assert.Contains(t, reason, "exceeds limit")

	ok, reason = m.ValidatePositionSize(30000, 100000)
	assert.False(t, ok)
	assert.Contains(t, reason, "%")
}

func TestCheckDailyLossLimit(t *testing.T) {
	m := NewManager(DefaultPositionLimits(), nil)

	ok, _ := m.CheckDailyLossLimit(100000, 97000)
	assert.True(t, ok, "a 3% loss is inside the 5% limit")

	ok, reason := m.CheckDailyLossLimit(100000, 94000)
	assert.False(t, ok)
	assert.Contains(t, reason, "daily loss")

	ok, _ = m.CheckDailyLossLimit(0, 94000)
	assert.True(t, ok, "no baseline means nothing to breach")
}
