package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoAvatar = errors.New("no avatar found")

type AvatarFetcher interface {
	AvatarFilePath(ctx context.Context, telegramID int64) (string, error)
}

// TelegramAvatars resolves profile photos through the Bot API. The bot client
// is created on first use and retried on the next call if that fails.
type TelegramAvatars struct {
	botToken string

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegramAvatars(botToken string) *TelegramAvatars {
	return &TelegramAvatars{botToken: botToken}
}

func (t *TelegramAvatars) client() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}

	bot, err := tgbotapi.NewBotAPI(t.botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *TelegramAvatars) AvatarFilePath(ctx context.Context, telegramID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	bot, err := t.client()
	if err != nil {
		return "", err
	}

	photos, err := bot.GetUserProfilePhotos(tgbotapi.UserProfilePhotosConfig{
		UserID: telegramID,
		Limit:  1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get user photos: %w", err)
	}

	if len(photos.Photos) == 0 || len(photos.Photos[0]) == 0 {
		return "", ErrNoAvatar
	}

	file, err := bot.GetFile(tgbotapi.FileConfig{
		FileID: photos.Photos[0][0].FileID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get file: %w", err)
	}

	return file.FilePath, nil
}
