package model

// BalanceChange is returned by every ledger operation so clients can
// reconcile their local state.
type BalanceChange struct {
	UserTelegramID int64
	Balance        int64
	Delta          int64
}

type BoostUpgrade struct {
	BalanceChange
	BoostID       int64
	BoostName     string
	PreviousLevel int
	Level         int
	Cost          int64
}

type TaskReward struct {
	BalanceChange
	TaskID int64
	Reward int64
}
