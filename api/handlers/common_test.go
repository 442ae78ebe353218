package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/inboxlab/mailbridge/dto"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/models"
)

func getLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

type mockEmailService struct {
	testResult *dto.ConnectionTestResult
	messages   []models.MessageSummary
	fetchErr   error
	receipt    *models.SendReceipt
	sendErr    error
	markErr    error
	folders    []models.FolderNode
	listErr    error

	testCalls  int
	fetchCalls int
	sendCalls  int
	markCalls  int
	listCalls  int

	lastTest  *dto.ConnectionTestRequest
	lastFetch *dto.FetchMessagesRequest
	lastSend  *dto.SendMessageRequest
	lastMark  *dto.MarkReadRequest
	lastList  *dto.ListFoldersRequest
}

func (m *mockEmailService) TestConnection(ctx context.Context, req *dto.ConnectionTestRequest) *dto.ConnectionTestResult {
	m.testCalls++
	m.lastTest = req
	if m.testResult != nil {
		return m.testResult
	}
	return &dto.ConnectionTestResult{Success: true, ReceiveOk: true, SendOk: true, Errors: []string{}}
}

func (m *mockEmailService) FetchMessages(ctx context.Context, req *dto.FetchMessagesRequest) ([]models.MessageSummary, error) {
	m.fetchCalls++
	m.lastFetch = req
	return m.messages, m.fetchErr
}

func (m *mockEmailService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*models.SendReceipt, error) {
	m.sendCalls++
	m.lastSend = req
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	return m.receipt, nil
}

func (m *mockEmailService) MarkRead(ctx context.Context, req *dto.MarkReadRequest) error {
	m.markCalls++
	m.lastMark = req
	return m.markErr
}

func (m *mockEmailService) ListFolders(ctx context.Context, req *dto.ListFoldersRequest) ([]models.FolderNode, error) {
	m.listCalls++
	m.lastList = req
	return m.folders, m.listErr
}

type recordedEvent struct {
	name    string
	payload map[string]interface{}
}

type mockReporter struct {
	events         []recordedEvent
	invocations    []json.RawMessage
	invokeResponse json.RawMessage
	invokeErr      error
}

func (m *mockReporter) Report(ctx context.Context, eventName string, payload map[string]interface{}) {
	m.events = append(m.events, recordedEvent{name: eventName, payload: payload})
}

func (m *mockReporter) Invoke(ctx context.Context, payload json.RawMessage) (json.RawMessage, error) {
	m.invocations = append(m.invocations, payload)
	if m.invokeErr != nil {
		return nil, m.invokeErr
	}
	return m.invokeResponse, nil
}

// postJSON runs one handler against a fresh router and returns the recorded
// response.
func postJSON(t *testing.T, handler gin.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/", handler)

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "response is not a JSON object: %s", w.Body.String())
	return body
}

// validationErrors pulls the per-field error map out of a 400 response.
func validationErrors(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	body := decodeBody(t, w)
	errs, ok := body["errors"].(map[string]interface{})
	require.True(t, ok, "response carries no field errors: %s", w.Body.String())
	return errs
}
