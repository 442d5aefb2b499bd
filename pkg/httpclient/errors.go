package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/prbretas/JEWELRY/pkg/errors"
)

// errorEnvelope is the {"error":{code,message}} body written by httputil.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response.
// A body in the standard error envelope becomes an *AppError carrying the
// downstream status and code; anything else becomes a plain error.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, body)
	}

	msg := fmt.Sprintf("%s: %s", service, env.Error.Message)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(msg)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case resp.StatusCode == http.StatusConflict:
		return apperrors.Conflict(msg)
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return apperrors.Unprocessable(env.Error.Code, msg, nil)
	case resp.StatusCode == http.StatusServiceUnavailable:
		appErr := apperrors.ServiceUnavailable(msg, nil)
		appErr.Code = env.Error.Code
		return appErr
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s server error (%d/%s): %s", service, resp.StatusCode, env.Error.Code, env.Error.Message)
	default:
		return &apperrors.AppError{Code: env.Error.Code, Message: msg, Status: resp.StatusCode}
	}
}
