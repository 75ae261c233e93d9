package social

import (
	"context"
	"fmt"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
	"github.com/limonhassan606/SocialAutoPoster/pkg/ratelimit"
)

const telegramCaptionMax = 4096

// TelegramConfig holds Telegram Bot API credentials
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string // defaults to the public Bot API
}

// Telegram publishes to a Telegram chat or channel via the Bot API
type Telegram struct {
	cfg     TelegramConfig
	client  *RequestClient
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// NewTelegram creates a Telegram publisher from explicit credentials
func NewTelegram(cfg TelegramConfig, client *RequestClient, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Telegram {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org/bot"
	}
	return &Telegram{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		log:     log.WithPlatform("telegram"),
	}
}

// Share sends a text message; a non-empty link is appended to the text
func (t *Telegram) Share(ctx context.Context, caption, link string) (models.JSON, error) {
	if err := validateText(caption, telegramCaptionMax); err != nil {
		return nil, t.fail("share", err)
	}
	text := caption
	if link != "" {
		if err := validateURL(link); err != nil {
			return nil, t.fail("share", err)
		}
		text = caption + "\n" + link
	}

	resp, err := t.request(ctx, "sendMessage", map[string]interface{}{
		"chat_id": t.cfg.ChatID,
		"text":    text,
	})
	if err != nil {
		return nil, t.fail("share", err)
	}
	t.log.Info().Msg("Telegram message sent")
	return resp, nil
}

// ShareImage sends a photo by URL with a caption
func (t *Telegram) ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error) {
	if err := validateText(caption, telegramCaptionMax); err != nil {
		return nil, t.fail("share image", err)
	}
	if err := validateURL(imageURL); err != nil {
		return nil, t.fail("share image", err)
	}

	resp, err := t.request(ctx, "sendPhoto", map[string]interface{}{
		"chat_id": t.cfg.ChatID,
		"photo":   imageURL,
		"caption": caption,
	})
	if err != nil {
		return nil, t.fail("share image", err)
	}
	t.log.Info().Msg("Telegram photo sent")
	return resp, nil
}

// ShareVideo sends a video by URL with a caption
func (t *Telegram) ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error) {
	if err := validateText(caption, telegramCaptionMax); err != nil {
		return nil, t.fail("share video", err)
	}
	if err := validateURL(videoURL); err != nil {
		return nil, t.fail("share video", err)
	}

	resp, err := t.request(ctx, "sendVideo", map[string]interface{}{
		"chat_id": t.cfg.ChatID,
		"video":   videoURL,
		"caption": caption,
	})
	if err != nil {
		return nil, t.fail("share video", err)
	}
	t.log.Info().Msg("Telegram video sent")
	return resp, nil
}

func (t *Telegram) request(ctx context.Context, method string, params map[string]interface{}) (models.JSON, error) {
	if err := t.limiter.Wait(ctx, ratelimit.LimiterTelegram); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s%s/%s", t.cfg.BaseURL, t.cfg.BotToken, method)
	return t.client.DoJSON(ctx, "POST", url, params, nil)
}

func (t *Telegram) fail(action string, err error) error {
	return &DeliveryError{Platform: "telegram", Message: fmt.Sprintf("failed to %s: %v", action, err)}
}
