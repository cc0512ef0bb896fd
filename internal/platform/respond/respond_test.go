// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package respond_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

func TestOK_WrapsData(t *testing.T) {
	recorder := httptest.NewRecorder()

	respond.OK(recorder, map[string]int{"total": 3})

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json; charset=utf-8", recorder.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"total":3}}`, recorder.Body.String())
}

func TestMessage(t *testing.T) {
	recorder := httptest.NewRecorder()

	respond.Message(recorder, http.StatusCreated, "User successfully created.")

	assert.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"data":{"message":"User successfully created."}}`, recorder.Body.String())
}

/*
TestError_AppError verifies that the client sees the AppError message and status.
*/
func TestError_AppError(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(recorder, request, apperr.Gone("Token expired."))

	assert.Equal(t, http.StatusGone, recorder.Code)

	var body respond.ErrorEnvelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Token expired.", body.Error)
	assert.Equal(t, "GONE", body.Code)
}

/*
TestError_HidesInternalCause ensures plain errors never leak their text.
*/
func TestError_HidesInternalCause(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/", nil)

	respond.Error(recorder, request, errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "relation")
	assert.Contains(t, recorder.Body.String(), "INTERNAL_ERROR")
}

/*
TestError_ValidationDetails renders per-field failures.
*/
func TestError_ValidationDetails(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPatch, "/user/", nil)

	respond.Error(recorder, request, apperr.ValidationError("Validation failed",
		apperr.FieldError{Field: "firstname", Message: "must not be blank"}))

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `{"error":"Validation failed","code":"VALIDATION_ERROR","details":[{"field":"firstname","message":"must not be blank"}]}`, recorder.Body.String())
}
