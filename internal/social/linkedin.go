package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
	"github.com/limonhassan606/SocialAutoPoster/pkg/ratelimit"
)

const (
	linkedinBaseURL    = "https://api.linkedin.com/v2"
	linkedinCaptionMax = 3000
)

// LinkedInConfig holds LinkedIn API credentials
type LinkedInConfig struct {
	AccessToken string
	PersonURN   string // e.g. "urn:li:person:xxxx"
}

// LinkedIn publishes member posts via the ugcPosts API
type LinkedIn struct {
	cfg     LinkedInConfig
	client  *RequestClient
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// NewLinkedIn creates a LinkedIn publisher backed by an oauth2 bearer client
func NewLinkedIn(ctx context.Context, cfg LinkedInConfig, client *RequestClient, limiter *ratelimit.MultiLimiter, log *logger.Logger) *LinkedIn {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	return &LinkedIn{
		cfg:     cfg,
		client:  client.WithHTTPClient(oauth2.NewClient(ctx, src)),
		limiter: limiter,
		log:     log.WithPlatform("linkedin"),
	}
}

// Share posts an article share with the caption and link
func (l *LinkedIn) Share(ctx context.Context, caption, link string) (models.JSON, error) {
	if err := validateText(caption, linkedinCaptionMax); err != nil {
		return nil, l.fail("share", err)
	}

	category := "NONE"
	var media []interface{}
	if link != "" {
		if err := validateURL(link); err != nil {
			return nil, l.fail("share", err)
		}
		category = "ARTICLE"
		media = l.mediaEntry(caption, link, titleFromURL(link))
	}

	resp, err := l.request(ctx, l.ugcPost(caption, category, media))
	if err != nil {
		return nil, l.fail("share", err)
	}
	l.log.Info().Msg("LinkedIn post shared")
	return resp, nil
}

// ShareImage posts an image share referencing the image URL
func (l *LinkedIn) ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error) {
	if err := validateText(caption, linkedinCaptionMax); err != nil {
		return nil, l.fail("share image", err)
	}
	if err := validateURL(imageURL); err != nil {
		return nil, l.fail("share image", err)
	}

	resp, err := l.request(ctx, l.ugcPost(caption, "IMAGE", l.mediaEntry(caption, imageURL, "Image Post")))
	if err != nil {
		return nil, l.fail("share image", err)
	}
	l.log.Info().Msg("LinkedIn image shared")
	return resp, nil
}

// ShareVideo posts a video share referencing the video URL
func (l *LinkedIn) ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error) {
	if err := validateText(caption, linkedinCaptionMax); err != nil {
		return nil, l.fail("share video", err)
	}
	if err := validateURL(videoURL); err != nil {
		return nil, l.fail("share video", err)
	}

	resp, err := l.request(ctx, l.ugcPost(caption, "VIDEO", l.mediaEntry(caption, videoURL, "Video Post")))
	if err != nil {
		return nil, l.fail("share video", err)
	}
	l.log.Info().Msg("LinkedIn video shared")
	return resp, nil
}

func (l *LinkedIn) ugcPost(caption, mediaCategory string, media []interface{}) map[string]interface{} {
	content := map[string]interface{}{
		"shareCommentary":    map[string]interface{}{"text": caption},
		"shareMediaCategory": mediaCategory,
	}
	if media != nil {
		content["media"] = media
	}
	return map[string]interface{}{
		"author":         l.cfg.PersonURN,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": content,
		},
		"visibility": map[string]interface{}{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
}

func (l *LinkedIn) mediaEntry(caption, mediaURL, title string) []interface{} {
	return []interface{}{
		map[string]interface{}{
			"status":      "READY",
			"description": map[string]interface{}{"text": caption},
			"media":       mediaURL,
			"title":       map[string]interface{}{"text": title},
		},
	}
}

func (l *LinkedIn) request(ctx context.Context, params map[string]interface{}) (models.JSON, error) {
	if err := l.limiter.Wait(ctx, ratelimit.LimiterLinkedIn); err != nil {
		return nil, err
	}
	headers := map[string]string{"X-Restli-Protocol-Version": "2.0.0"}
	return l.client.DoJSON(ctx, "POST", linkedinBaseURL+"/ugcPosts", params, headers)
}

func (l *LinkedIn) fail(action string, err error) error {
	return &DeliveryError{Platform: "linkedin", Message: fmt.Sprintf("failed to %s: %v", action, err)}
}

func titleFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Shared Link"
	}
	return strings.TrimPrefix(u.Host, "www.")
}
