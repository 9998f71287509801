package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "bad", "details")

	assert.Equal(t, "bad", err.Error())
	assert.Equal(t, "details", err.Details)

	wrapped := InvalidRequestWithError(io.ErrUnexpectedEOF)
	assert.Equal(t, http.StatusBadRequest, wrapped.StatusCode)
	assert.Equal(t, io.ErrUnexpectedEOF.Error(), wrapped.Details)
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("limit", "must be positive")

	assert.Equal(t, CodeValidationFailed, err.ErrorCode)
	assert.Equal(t, []ValidationError{{Field: "limit", Message: "must be positive"}}, err.Details)
}

func TestAPIError_Problem(t *testing.T) {
	tests := []struct {
		err      *APIError
		wantType string
	}{
		{ErrDatasetNotLoaded, TypeDatasetNotLoaded},
		{ErrReloadInProgress, TypeConflict},
		{ErrTimeout, TypeTimeout},
		{ErrValidation("limit", "bad"), TypeValidation},
		{New(http.StatusTeapot, "TEAPOT", "short and stout"), TypeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.err.ErrorCode, func(t *testing.T) {
			pd := tt.err.Problem("/api/x")
			assert.Equal(t, tt.wantType, pd.Type)
			assert.Equal(t, tt.err.StatusCode, pd.Status)
			assert.Equal(t, http.StatusText(tt.err.StatusCode), pd.Title)
			assert.Equal(t, tt.err.ErrorCode, pd.Extensions["error_code"])
		})
	}
}

func TestAppError(t *testing.T) {
	cause := io.ErrClosedPipe
	err := Wrap(KindDataset, "reload failed", cause).With("file", "Sales_May_2019.csv")

	assert.Equal(t, "dataset: reload failed: io: read/write on closed pipe", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Sales_May_2019.csv", err.Fields["file"])

	assert.Equal(t, "not found: page", Wrap(KindNotFound, "page", nil).Error())
	assert.Equal(t, KindExport, KindOf(fmt.Errorf("export: %w", Wrap(KindExport, "x", nil))))
	assert.Equal(t, KindInternal, KindOf(io.EOF))
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestClassify_AppErrorKinds(t *testing.T) {
	tests := []struct {
		kind       Kind
		wantStatus int
		wantCode   string
	}{
		{KindSelection, http.StatusBadRequest, CodeValidationFailed},
		{KindNotFound, http.StatusNotFound, CodeNotFound},
		{KindDataset, http.StatusServiceUnavailable, CodeDatasetUnavailable},
		{KindExport, http.StatusInternalServerError, CodeExportFailed},
		{KindConfig, http.StatusInternalServerError, CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			apiErr := Classify(Wrap(tt.kind, "failed", nil).With("path", "/tmp/x"))
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
			assert.Equal(t, "failed", apiErr.Message)
			assert.Equal(t, map[string]interface{}{"path": "/tmp/x"}, apiErr.Details)
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "", "/api/dashboard").
		WithExtension("error_code", CodeValidationFailed)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
	assert.Equal(t, CodeValidationFailed, body["error_code"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "Extensions")
}

func TestProblemDetails_ExtensionsCannotOverrideCoreFields(t *testing.T) {
	pd := (&ProblemDetails{Type: TypeInternal, Status: 500}).
		WithExtension("status", 200).
		WithExtension("detail", "sneaky")

	data, err := json.Marshal(pd)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"status":500`)
	assert.NotContains(t, string(data), "sneaky")
}
