package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, "boom")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"fail","error":"boom"}`, rec.Body.String())
}

func TestSuccess_EmptyDataIsKept(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, http.StatusOK, struct{}{})

	assert.JSONEq(t, `{"status":"success","data":{}}`, rec.Body.String())
}

func TestJSON_TokenEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusOK, Response{Status: StatusSuccess, Token: "t", Data: map[string]string{"name": "A"}})

	assert.JSONEq(t, `{"status":"success","token":"t","data":{"name":"A"}}`, rec.Body.String())
}
