package model

import "github.com/shopspring/decimal"

type Boost struct {
	ID            int64
	Name          string
	Description   string
	BaseCost      int64
	CostPerLevel  decimal.Decimal
	BaseValue     int64
	ValuePerLevel int64
	MaxLevel      int
}

// UpgradeCost is the price of owning the boost at level. Fractional parts of
// the per-level cost are rounded up.
func (b *Boost) UpgradeCost(level int) int64 {
	steps := decimal.NewFromInt(int64(level - 1))
	return b.BaseCost + b.CostPerLevel.Mul(steps).Ceil().IntPart()
}

// Snapshot returns the per-user progress record created at onboarding.
func (b *Boost) Snapshot() BoostProgress {
	return BoostProgress{
		ID:                  b.ID,
		Level:               1,
		BaseValue:           b.BaseValue,
		ValuePerLevel:       b.ValuePerLevel,
		BaseUpgradeCost:     b.BaseCost,
		UpgradeCostPerLevel: b.CostPerLevel,
		MaxLevel:            b.MaxLevel,
	}
}

type BoostProgress struct {
	ID                  int64           `json:"id"`
	Level               int             `json:"level"`
	BaseValue           int64           `json:"base_value"`
	ValuePerLevel       int64           `json:"value_per_level"`
	BaseUpgradeCost     int64           `json:"base_upgrade_cost"`
	UpgradeCostPerLevel decimal.Decimal `json:"upgrade_cost_per_level"`
	MaxLevel            int             `json:"max_level"`
}

// BoostsInfo maps boost name to the user's progress on it.
type BoostsInfo map[string]BoostProgress

func (bi BoostsInfo) Clone() BoostsInfo {
	out := make(BoostsInfo, len(bi))
	for k, v := range bi {
		out[k] = v
	}
	return out
}
