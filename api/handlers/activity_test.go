package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	er "github.com/inboxlab/mailbridge/internal/errors"
)

func TestInvokeForwardsPayload(t *testing.T) {
	reporter := &mockReporter{invokeResponse: json.RawMessage(`{"accepted":true}`)}
	h := NewActivityHandler(reporter, getLogger())

	w := postJSON(t, h.Invoke(), `{"action":"sync"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accepted":true}`, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	require.Len(t, reporter.invocations, 1)
	assert.JSONEq(t, `{"action":"sync"}`, string(reporter.invocations[0]))
}

func TestInvokeRejectsNonJSONBody(t *testing.T) {
	reporter := &mockReporter{}
	h := NewActivityHandler(reporter, getLogger())

	w := postJSON(t, h.Invoke(), `not json at all`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, reporter.invocations)
}

func TestInvokeRejectsEmptyBody(t *testing.T) {
	reporter := &mockReporter{}
	h := NewActivityHandler(reporter, getLogger())

	w := postJSON(t, h.Invoke(), "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, reporter.invocations)
}

func TestInvokeUpstreamFailureIs200(t *testing.T) {
	reporter := &mockReporter{invokeErr: er.ErrExternalCallFailed}
	h := NewActivityHandler(reporter, getLogger())

	w := postJSON(t, h.Invoke(), `{"action":"sync"}`)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "external call failed", body["error"])
}
