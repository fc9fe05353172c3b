package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"chart-bridge/src/helpers"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Query Validation
// -----------------------------------------------------------------------------

// ValidateBarsQuery checks the caller input and returns the normalized
// interval: "D" and "W" map to "1D"/"1W", any other value must be a positive
// minute count and is suffixed with "min".
func ValidateBarsQuery(symbol, interval string) (string, error) {
	if symbol == "" {
		return "", &helpers.ValidationError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "symbol parameter is required",
		}}
	}
	if interval == "" {
		return "", &helpers.ValidationError{ChartBridgeError: helpers.ChartBridgeError{
			Message: "interval parameter is required",
		}}
	}

	switch interval {
	case "D":
		return "1D", nil
	case "W":
		return "1W", nil
	default:
		minutes, err := strconv.Atoi(interval)
		if err != nil || minutes <= 0 {
			return "", &helpers.ValidationError{ChartBridgeError: helpers.ChartBridgeError{
				Message: fmt.Sprintf("interval %q is not D, W or a positive minute count", interval),
			}}
		}
		return interval + "min", nil
	}
}

// -----------------------------------------------------------------------------
// Error Mapping
// -----------------------------------------------------------------------------

// writeError maps the internal taxonomy onto the wire contract:
// {error, errorType, details} with errorType one of ValidationError /
// RateLimitError / FetchError. Rate limits additionally carry a Retry-After
// header and an ISO-8601 retry timestamp for the UI countdown.
func writeError(c *gin.Context, err error) {
	if rle, ok := helpers.IsRateLimit(err); ok {
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":     rle.Message,
			"errorType": "RateLimitError",
			"details": gin.H{
				"retryAfter":     rle.RetryAfterSeconds,
				"retryTimestamp": rle.RetryAt.UTC().Format(time.RFC3339),
			},
		})
		return
	}

	if helpers.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     err.Error(),
			"errorType": "ValidationError",
			"details":   gin.H{},
		})
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{
		"error":     err.Error(),
		"errorType": "FetchError",
		"details": gin.H{
			"kind": helpers.Kind(err),
		},
	})
}
