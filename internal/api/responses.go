package api

import (
	"time"

	"tap_miniapp/internal/model"

	"github.com/shopspring/decimal"
)

type userResponse struct {
	TelegramID int64            `json:"telegram_id"`
	Balance    int64            `json:"balance"`
	BoostsInfo model.BoostsInfo `json:"boosts_info"`
	JoinedAt   time.Time        `json:"joined_at"`
	IsActive   bool             `json:"is_active"`
	ReferrerID *int64           `json:"referrer_id"`
}

func newUserResponse(u *model.User) userResponse {
	info := u.BoostsInfo
	if info == nil {
		info = model.BoostsInfo{}
	}
	return userResponse{
		TelegramID: u.TelegramID,
		Balance:    u.Balance,
		BoostsInfo: info,
		JoinedAt:   u.JoinedAt,
		IsActive:   u.IsActive,
		ReferrerID: u.ReferrerID,
	}
}

type referralResponse struct {
	TelegramID int64     `json:"telegram_id"`
	Balance    int64     `json:"balance"`
	JoinedAt   time.Time `json:"joined_at"`
}

type boostResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	BaseCost      int64           `json:"base_cost"`
	CostPerLevel  decimal.Decimal `json:"cost_per_level"`
	BaseValue     int64           `json:"base_value"`
	ValuePerLevel int64           `json:"value_per_level"`
	MaxLevel      int             `json:"max_level"`
}

type taskResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Reward      int64  `json:"reward"`
}

type completedTaskResponse struct {
	TaskID      int64     `json:"task_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type balanceResponse struct {
	TelegramID int64 `json:"telegram_id"`
	Balance    int64 `json:"balance"`
	Delta      int64 `json:"delta"`
}

func newBalanceResponse(b model.BalanceChange) balanceResponse {
	return balanceResponse{
		TelegramID: b.UserTelegramID,
		Balance:    b.Balance,
		Delta:      b.Delta,
	}
}

type upgradeResponse struct {
	balanceResponse
	BoostID       int64  `json:"boost_id"`
	BoostName     string `json:"boost_name"`
	PreviousLevel int    `json:"previous_level"`
	Level         int    `json:"level"`
	Cost          int64  `json:"cost"`
}

type taskRewardResponse struct {
	balanceResponse
	TaskID int64 `json:"task_id"`
	Reward int64 `json:"reward"`
}
