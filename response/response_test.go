package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zllovesuki/scribe/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/", nil)

	response.WriteError(w, r, response.ErrBadRequest().AddMessages("userId and planId are required"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body struct {
		Error    string   `json:"error"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Bad request", body.Error)
	assert.Equal(t, []string{"userId and planId are required"}, body.Messages)
}

func TestWriteResponse(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)

	response.WriteResponse(w, r, map[string]string{"url": "https://checkout.stripe.com/c/pay/cs_test_1"})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_1", body["url"])
}
