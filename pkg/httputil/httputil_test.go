package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/purchase-orders/pkg/errors"
	"github.com/utafrali/purchase-orders/pkg/logger"
	"github.com/utafrali/purchase-orders/pkg/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- WriteJSON ---

func TestWriteJSON_BareBody(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"message": "Purchase Order API"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"message":"Purchase Order API"}`, rec.Body.String())
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, map[string]float64{"total_price": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
}

func TestResponse_OmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, Response{
		Error: &ErrorResponse{Code: "ERR", Message: "msg"},
	})
	assert.JSONEq(t, `{"error":{"code":"ERR","message":"msg"}}`, rec.Body.String())
}

// --- WriteError ---

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{"app not found", apperrors.NotFound("purchase order", "7"), http.StatusNotFound, "NOT_FOUND", "purchase order with id 7 not found"},
		{"invalid cursor", apperrors.InvalidCursor(errors.New("bad base64")), http.StatusBadRequest, "INVALID_CURSOR", "Invalid cursor"},
		{"app validation", apperrors.Validation("limit out of range"), http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit out of range"},
		{"wrapped app error", fmt.Errorf("service: %w", apperrors.NotFound("purchase order", "9")), http.StatusNotFound, "NOT_FOUND", "purchase order with id 9 not found"},
		{"sentinel not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
		{"sentinel invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", "invalid input"},
		{"unknown", fmt.Errorf("something unexpected"), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
		{"internal hides cause", apperrors.Internal(errors.New("pq: password")), http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders", nil)

			WriteError(rec, req, tt.err, testLogger())

			assert.Equal(t, tt.status, rec.Code)
			resp := decodeResponse(t, rec)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Equal(t, tt.message, resp.Error.Message)
		})
	}
}

func TestWriteError_ValidationErrorHasFields(t *testing.T) {
	type input struct {
		Quantity int `json:"quantity" validate:"gt=0"`
	}
	verr := validator.Validate(input{})
	require.Error(t, verr)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/purchase-orders", nil)
	WriteError(rec, req, verr, testLogger())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "must be greater than 0", resp.Error.Fields["quantity"])
}

func TestWriteError_LogsServerErrorsToRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	reqLogger := slog.New(slog.NewJSONHandler(&buf, nil))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders/1", nil)
	req = req.WithContext(logger.NewContext(req.Context(), reqLogger))

	WriteError(rec, req, errors.New("connection reset"), testLogger())
	assert.Contains(t, buf.String(), "connection reset")

	buf.Reset()
	WriteError(httptest.NewRecorder(), req, apperrors.NotFound("purchase order", "1"), testLogger())
	assert.Zero(t, buf.Len(), "client errors are not logged")
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders/1", nil)
	req = req.WithContext(logger.WithCorrelationID(context.Background(), "corr-123"))

	WriteError(rec, req, apperrors.NotFound("purchase order", "1"), testLogger())

	assert.Equal(t, "corr-123", decodeResponse(t, rec).Error.RequestID)
}

func TestWriteError_NoCorrelationID_OmitsRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders/1", nil)

	WriteError(rec, req, apperrors.ErrNotFound, testLogger())

	var raw map[string]map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&raw))
	assert.NotContains(t, raw["error"], "request_id")
}

// --- ParseID ---

func TestParseID(t *testing.T) {
	tests := []struct {
		param string
		want  int64
		ok    bool
	}{
		{"1", 1, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"0", 0, true},
		{"-4", -4, true},
		{"abc", 0, false},
		{"1.5", 0, false},
		{"", 0, false},
		{"9223372036854775808", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.param, func(t *testing.T) {
			rec := httptest.NewRecorder()
			id, ok := ParseID(rec, tt.param)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
			if !tt.ok {
				assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
				assert.Equal(t, "VALIDATION_ERROR", decodeResponse(t, rec).Error.Code)
			}
		})
	}
}
