package classifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	domain "github.com/oshokin/catpoint/internal/domain/security"
	"github.com/oshokin/catpoint/internal/logger"
	"github.com/oshokin/catpoint/internal/version"
)

// catLabel is the label reported for cats by the detection service.
const catLabel = "cat"

// Label is one object detected in an image.
type Label struct {
	// Name is the detected object class.
	Name string `json:"name"`
	// Confidence is the detection confidence in percent.
	Confidence float32 `json:"confidence"`
}

// detectResponse is the body returned by the detection endpoint.
type detectResponse struct {
	// Labels holds every object detected above the requested confidence.
	Labels []Label `json:"labels"`
}

// RemoteOptions configures the HTTP client of Remote.
type RemoteOptions struct {
	// Endpoint is the URL images are POSTed to.
	Endpoint string
	// Timeout bounds a single request.
	Timeout time.Duration
	// RetryCount is the number of retries after a failed request.
	RetryCount int
	// RetryWaitTime is the delay before the first retry.
	RetryWaitTime time.Duration
}

// Remote sends images to an HTTP label-detection service.
type Remote struct {
	// httpClient is preconfigured with endpoint, timeout and retry policy.
	httpClient *resty.Client
	// endpoint is the detection URL.
	endpoint string
}

// NewRemote creates a classifier for the given endpoint.
func NewRemote(opts RemoteOptions) *Remote {
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(opts.RetryWaitTime).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent()).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	return &Remote{
		httpClient: client,
		endpoint:   opts.Endpoint,
	}
}

// ImageContainsCat asks the service for labels above the threshold and looks for a cat.
func (r *Remote) ImageContainsCat(ctx context.Context, image domain.Image, confidenceThreshold float32) (bool, error) {
	var result detectResponse

	resp, err := r.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetQueryParam("min_confidence", strconv.FormatFloat(float64(confidenceThreshold), 'f', -1, 32)).
		SetBody([]byte(image)).
		SetResult(&result).
		Post(r.endpoint)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, fmt.Errorf("detect labels: %w", ctxErr)
		}

		return false, fmt.Errorf("detect labels: %w: %w", ErrClassifierUnavailable, err)
	}

	if resp.IsError() {
		return false, fmt.Errorf("detect labels: %w: status %s", ErrClassifierUnavailable, resp.Status())
	}

	for _, label := range result.Labels {
		logger.DebugKV(ctx, "Label detected", "name", label.Name, "confidence", label.Confidence)
	}

	return containsCat(result.Labels, confidenceThreshold), nil
}

// containsCat reports whether a cat label reaches the threshold.
func containsCat(labels []Label, confidenceThreshold float32) bool {
	for _, label := range labels {
		if strings.EqualFold(label.Name, catLabel) && label.Confidence >= confidenceThreshold {
			return true
		}
	}

	return false
}
