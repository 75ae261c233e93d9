package social

import (
	"context"
	"fmt"
	"sort"

	"github.com/limonhassan606/SocialAutoPoster/internal/models"
	"github.com/limonhassan606/SocialAutoPoster/pkg/logger"
)

// PlatformResult is the outcome of one platform's delivery attempt
type PlatformResult struct {
	Success bool        `json:"success"`
	Data    models.JSON `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// DispatchResult aggregates per-platform outcomes of one fan-out
type DispatchResult struct {
	Results      map[string]PlatformResult `json:"results"`
	Errors       map[string]string         `json:"errors"`
	SuccessCount int                       `json:"success_count"`
	ErrorCount   int                       `json:"error_count"`
	TotalCount   int                       `json:"total_platforms"`
}

// AllFailed reports whether every targeted platform failed to deliver
func (r *DispatchResult) AllFailed() bool {
	return r.TotalCount > 0 && r.SuccessCount == 0
}

// AsJSON converts the result into a storable payload
func (r *DispatchResult) AsJSON() models.JSON {
	results := make(map[string]interface{}, len(r.Results))
	for platform, pr := range r.Results {
		entry := map[string]interface{}{"success": pr.Success}
		if pr.Data != nil {
			entry["data"] = map[string]interface{}(pr.Data)
		}
		if pr.Error != "" {
			entry["error"] = pr.Error
		}
		results[platform] = entry
	}
	errors := make(map[string]interface{}, len(r.Errors))
	for platform, msg := range r.Errors {
		errors[platform] = msg
	}
	return models.JSON{
		"results":         results,
		"errors":          errors,
		"success_count":   r.SuccessCount,
		"error_count":     r.ErrorCount,
		"total_platforms": r.TotalCount,
	}
}

// Dispatcher fans a single publish request out across independently-failing
// Publishers. Publishers are registered explicitly at construction time; no
// platform's failure or success affects any other platform's attempt.
type Dispatcher struct {
	publishers map[string]Publisher
	log        *logger.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		publishers: make(map[string]Publisher),
		log:        log.WithComponent("dispatcher"),
	}
}

// Register adds a named Publisher to the dispatch table
func (d *Dispatcher) Register(name string, p Publisher) {
	d.publishers[name] = p
}

// Platforms returns the registered platform names, sorted
func (d *Dispatcher) Platforms() []string {
	names := make([]string, 0, len(d.publishers))
	for name := range d.publishers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Supports reports whether a platform name is registered
func (d *Dispatcher) Supports(name string) bool {
	_, ok := d.publishers[name]
	return ok
}

// Dispatch delivers one publish request to every named platform. Unknown
// platforms and per-platform delivery failures are recorded against that
// platform only; the call itself errors only on a contract violation
// (unknown operation).
func (d *Dispatcher) Dispatch(ctx context.Context, platforms []string, op Operation, caption, mediaURL string) (*DispatchResult, error) {
	if !op.Valid() {
		return nil, fmt.Errorf("unknown operation %q", op)
	}

	result := &DispatchResult{
		Results:    make(map[string]PlatformResult, len(platforms)),
		Errors:     make(map[string]string),
		TotalCount: len(platforms),
	}

	for _, platform := range platforms {
		pub, ok := d.publishers[platform]
		if !ok {
			msg := fmt.Sprintf("platform %q is not supported", platform)
			result.Errors[platform] = msg
			result.Results[platform] = PlatformResult{Success: false, Error: msg}
			result.ErrorCount++
			d.log.Warn().Str("platform", platform).Msg("Skipping unknown platform")
			continue
		}

		data, err := d.invoke(ctx, pub, op, caption, mediaURL)
		if err != nil {
			result.Errors[platform] = err.Error()
			result.Results[platform] = PlatformResult{Success: false, Error: err.Error()}
			result.ErrorCount++
			d.log.Error().
				Err(err).
				Str("platform", platform).
				Str("operation", string(op)).
				Msg("Failed to post to platform")
			continue
		}

		result.Results[platform] = PlatformResult{Success: true, Data: data}
		result.SuccessCount++
		d.log.Info().
			Str("platform", platform).
			Str("operation", string(op)).
			Msg("Successfully posted to platform")
	}

	return result, nil
}

// ShareToAll delivers to every registered platform
func (d *Dispatcher) ShareToAll(ctx context.Context, op Operation, caption, mediaURL string) (*DispatchResult, error) {
	return d.Dispatch(ctx, d.Platforms(), op, caption, mediaURL)
}

func (d *Dispatcher) invoke(ctx context.Context, pub Publisher, op Operation, caption, mediaURL string) (models.JSON, error) {
	switch op {
	case OpShare:
		return pub.Share(ctx, caption, mediaURL)
	case OpShareImage:
		return pub.ShareImage(ctx, caption, mediaURL)
	case OpShareVideo:
		return pub.ShareVideo(ctx, caption, mediaURL)
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}
