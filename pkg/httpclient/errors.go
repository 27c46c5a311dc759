package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
)

const maxBodyBytes = 8 << 20

// errorEnvelope mirrors httputil.Response for error bodies.
type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and translates it into an
// error. Structured {"error":{...}} bodies keep their code and message and
// wrap the sentinel matching the status. The body is consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", serviceName, resp.StatusCode, string(body))
	}
	return mapRemoteError(resp.StatusCode, env.Error.Code, env.Error.Message, serviceName)
}

func mapRemoteError(status int, code, message, serviceName string) error {
	appErr := &apperrors.AppError{
		Code:    code,
		Message: fmt.Sprintf("%s: %s", serviceName, message),
		Status:  status,
	}

	switch status {
	case http.StatusNotFound:
		appErr.Err = apperrors.ErrNotFound
	case http.StatusBadRequest:
		appErr.Err = apperrors.ErrInvalidInput
	case http.StatusConflict:
		appErr.Err = apperrors.ErrConflict
	case http.StatusUnprocessableEntity:
		appErr.Err = apperrors.ErrValidation
	case http.StatusServiceUnavailable:
		appErr.Err = apperrors.ErrServiceUnavail
	default:
		if status >= 500 {
			return fmt.Errorf("%s server error (%d/%s): %s", serviceName, status, code, message)
		}
	}
	return appErr
}
