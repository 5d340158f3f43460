package model

import "time"

type Task struct {
	ID          int64
	Name        string
	Description string
	Icon        string
	Reward      int64
}

type TaskCompletion struct {
	UserTelegramID int64
	TaskID         int64
	CompletedAt    time.Time
}
