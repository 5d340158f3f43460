package model

import "time"

type User struct {
	TelegramID int64
	Balance    int64
	BoostsInfo BoostsInfo
	JoinedAt   time.Time
	IsActive   bool
	ReferrerID *int64
}

type UserReferral struct {
	TelegramID int64
	Balance    int64
	JoinedAt   time.Time
}
