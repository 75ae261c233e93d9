package social

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
)

// Publisher is the capability contract every platform implementation
// satisfies. Each call delivers one piece of content to one platform and
// returns the platform's response payload, or a *DeliveryError on any
// non-success outcome.
type Publisher interface {
	Share(ctx context.Context, caption, link string) (models.JSON, error)
	ShareImage(ctx context.Context, caption, imageURL string) (models.JSON, error)
	ShareVideo(ctx context.Context, caption, videoURL string) (models.JSON, error)
}

// Operation selects which Publisher capability a dispatch exercises
type Operation string

const (
	OpShare      Operation = "share"
	OpShareImage Operation = "share_image"
	OpShareVideo Operation = "share_video"
)

// Valid reports whether the operation is one of the supported values
func (o Operation) Valid() bool {
	switch o {
	case OpShare, OpShareImage, OpShareVideo:
		return true
	}
	return false
}

// DeliveryError is a terminal failure to deliver content to one platform,
// carrying the extracted remote error message.
type DeliveryError struct {
	Platform string
	Message  string
}

func (e *DeliveryError) Error() string {
	if e.Platform == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Platform, e.Message)
}

func validateText(text string, maxLength int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text content cannot be empty")
	}
	if len(text) > maxLength {
		return fmt.Errorf("text content exceeds maximum length of %d characters", maxLength)
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid URL provided: %s", raw)
	}
	return nil
}
