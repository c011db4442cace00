package maskedlm

import (
	"errors"
	"fmt"
)

// ErrRateLimited indicates the inference endpoint throttled the request
var ErrRateLimited = errors.New("masked language model rate limit exceeded")

// ErrUnauthorized indicates the API token was rejected
var ErrUnauthorized = errors.New("masked language model token rejected")

// ServerError represents a 5xx response, including a model still loading
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("masked language model server error: HTTP %d", e.StatusCode)
}
