package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
	"github.com/limonhassan606/SocialAutoPoster/pkg/ratelimit"
)

const facebookCaptionMax = 2000

// FacebookConfig holds Facebook Graph API credentials
type FacebookConfig struct {
	AccessToken string
	PageID      string
	APIVersion  string // e.g. "v20.0"
}

// Facebook publishes to a Facebook page via the Graph API
type Facebook struct {
	cfg     FacebookConfig
	client  *RequestClient
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// NewFacebook creates a Facebook publisher from explicit credentials
func NewFacebook(cfg FacebookConfig, client *RequestClient, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Facebook {
	if cfg.APIVersion == "" {
		cfg.APIVersion = "v20.0"
	}
	return &Facebook{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		log:     log.WithPlatform("facebook"),
	}
}

// Share posts a text update, optionally with a link, to the page feed
func (f *Facebook) Share(ctx context.Context, caption, link string) (models.JSON, error) {
	if err := validateText(caption, facebookCaptionMax); err != nil {
		return nil, f.fail("share", err)
	}
	params := map[string]interface{}{
		"message":      caption,
		"access_token": f.cfg.AccessToken,
	}
	if link != "" {
		if err := validateURL(link); err != nil {
			return nil, f.fail("share", err)
		}
		params["link"] = link
	}

	resp, err := f.request(ctx, f.apiURL("feed"), params)
	if err != nil {
		return nil, f.fail("share", err)
	}
	f.log.Info().Msg("Facebook post shared")
	return resp, nil
}

// ShareImage posts a photo by URL with a caption
func (f *Facebook) ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error) {
	if err := validateText(caption, facebookCaptionMax); err != nil {
		return nil, f.fail("share image", err)
	}
	if err := validateURL(imageURL); err != nil {
		return nil, f.fail("share image", err)
	}

	resp, err := f.request(ctx, f.apiURL("photos"), map[string]interface{}{
		"url":          imageURL,
		"caption":      caption,
		"access_token": f.cfg.AccessToken,
	})
	if err != nil {
		return nil, f.fail("share image", err)
	}
	f.log.Info().Msg("Facebook image shared")
	return resp, nil
}

// ShareVideo posts a video by URL with a description
func (f *Facebook) ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error) {
	if err := validateText(caption, facebookCaptionMax); err != nil {
		return nil, f.fail("share video", err)
	}
	if err := validateURL(videoURL); err != nil {
		return nil, f.fail("share video", err)
	}

	resp, err := f.request(ctx, f.apiURL("videos"), map[string]interface{}{
		"file_url":     videoURL,
		"description":  caption,
		"access_token": f.cfg.AccessToken,
	})
	if err != nil {
		return nil, f.fail("share video", err)
	}
	f.log.Info().Msg("Facebook video shared")
	return resp, nil
}

func (f *Facebook) request(ctx context.Context, url string, params map[string]interface{}) (models.JSON, error) {
	if err := f.limiter.Wait(ctx, ratelimit.LimiterFacebook); err != nil {
		return nil, err
	}
	return f.client.DoJSON(ctx, "POST", url, params, nil)
}

// Video uploads go through the dedicated graph-video host
func (f *Facebook) apiURL(endpoint string) string {
	host := "graph.facebook.com"
	if strings.Contains(endpoint, "videos") {
		host = "graph-video.facebook.com"
	}
	return fmt.Sprintf("https://%s/%s/%s/%s", host, f.cfg.APIVersion, f.cfg.PageID, endpoint)
}

func (f *Facebook) fail(action string, err error) error {
	return &DeliveryError{Platform: "facebook", Message: fmt.Sprintf("failed to %s: %v", action, err)}
}
