package httpjson

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSetsStatusAndContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, http.StatusCreated, map[string]int{"id": 7})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":7}`, rec.Body.String())
}

func TestMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	Message(rec, http.StatusOK, "done")

	assert.JSONEq(t, `{"message":"done"}`, rec.Body.String())
}

func TestDecode(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"susan"}`))
	require.NoError(t, Decode(req, &body))
	assert.Equal(t, "susan", body.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"susan","extra":1}`))
	require.Error(t, Decode(req, &body))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`not json`))
	require.Error(t, Decode(req, &body))
}
