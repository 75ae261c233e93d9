package social

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
	"github.com/limonhassan606/SocialAutoPoster/pkg/ratelimit"
)

const (
	twitterBaseURL = "https://api.twitter.com/2"
	tweetMaxLength = 280
)

// TwitterConfig holds Twitter/X API credentials
type TwitterConfig struct {
	BearerToken string
}

// Twitter publishes tweets via the v2 API
type Twitter struct {
	client  *RequestClient
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// NewTwitter creates a Twitter publisher. The bearer token is carried by an
// oauth2 transport rather than per-request header plumbing.
func NewTwitter(ctx context.Context, cfg TwitterConfig, client *RequestClient, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Twitter {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.BearerToken, TokenType: "Bearer"})
	return &Twitter{
		client:  client.WithHTTPClient(oauth2.NewClient(ctx, src)),
		limiter: limiter,
		log:     log.WithPlatform("twitter"),
	}
}

// Share posts a tweet with the caption and link
func (t *Twitter) Share(ctx context.Context, caption, link string) (models.JSON, error) {
	if err := validateText(caption, tweetMaxLength); err != nil {
		return nil, t.fail("share", err)
	}
	text := caption
	if link != "" {
		if err := validateURL(link); err != nil {
			return nil, t.fail("share", err)
		}
		text = caption + "\n" + link
	}
	if len(text) > tweetMaxLength {
		return nil, t.fail("share", fmt.Errorf("tweet text exceeds %d character limit", tweetMaxLength))
	}

	resp, err := t.request(ctx, map[string]interface{}{"text": text})
	if err != nil {
		return nil, t.fail("share", err)
	}
	t.log.Info().Msg("Tweet posted")
	return resp, nil
}

// ShareImage posts a tweet referencing the image URL. Native media upload
// requires the chunked upload endpoint, which this publisher does not drive;
// the image travels as a link card.
func (t *Twitter) ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error) {
	if err := validateURL(imageURL); err != nil {
		return nil, t.fail("share image", err)
	}
	return t.Share(ctx, caption, imageURL)
}

// ShareVideo posts a tweet referencing the video URL
func (t *Twitter) ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error) {
	if err := validateURL(videoURL); err != nil {
		return nil, t.fail("share video", err)
	}
	return t.Share(ctx, caption, videoURL)
}

func (t *Twitter) request(ctx context.Context, params map[string]interface{}) (models.JSON, error) {
	if err := t.limiter.Wait(ctx, ratelimit.LimiterTwitter); err != nil {
		return nil, err
	}
	return t.client.DoJSON(ctx, "POST", twitterBaseURL+"/tweets", params, nil)
}

func (t *Twitter) fail(action string, err error) error {
	return &DeliveryError{Platform: "twitter", Message: fmt.Sprintf("failed to %s: %v", action, err)}
}
