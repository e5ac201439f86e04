package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Sarita-021/mediSyncAI-App/internal/domain"
	"github.com/Sarita-021/mediSyncAI-App/internal/pkg/llm"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/extractor"
	"github.com/Sarita-021/mediSyncAI-App/internal/service/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVisionModel struct {
	GenerateFunc func(ctx context.Context, prompt string, image []byte, mimeType string) (*llm.Reply, error)
}

func (m *mockVisionModel) GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (*llm.Reply, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, image, mimeType)
	}
	return &llm.Reply{Content: `{"patient_name":"Jane Doe","medicines":[{"name":"Paracetamol","strength":"650mg","dosage_frequency":"1-0-1","duration":"5 days"}],"notes":null}`}, nil
}

func (m *mockVisionModel) ModelName() string {
	return "mock"
}

type mockConversation struct {
	SendFunc func(ctx context.Context, text string) (*llm.Reply, error)
}

func (m *mockConversation) Send(ctx context.Context, text string) (*llm.Reply, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, text)
	}
	return &llm.Reply{Content: "Paracetamol relieves fever. Please consult a licensed medical professional before taking any medication."}, nil
}

func (m *mockConversation) HistoryLength() int {
	return 0
}

type mockStarter struct {
	SendFunc func(ctx context.Context, text string) (*llm.Reply, error)
}

func (m *mockStarter) StartConversation() llm.Conversation {
	return &mockConversation{SendFunc: m.SendFunc}
}

func (m *mockStarter) ModelName() string {
	return "mock"
}

func setupSessionRouter(vision *mockVisionModel, starter *mockStarter) (*gin.Engine, *session.Manager) {
	gin.SetMode(gin.TestMode)
	manager := session.NewManager(starter, extractor.New(vision, nil), nil, 0)
	h := NewSessionHandler(manager)

	r := gin.New()
	sessions := r.Group("/api/sessions")
	sessions.POST("", h.Create)
	sessions.GET("/:id", h.Get)
	sessions.DELETE("/:id", h.Delete)
	sessions.POST("/:id/extractions", h.Extract)
	sessions.GET("/:id/extractions/latest", h.LatestExtraction)
	sessions.POST("/:id/messages", h.SendMessage)
	sessions.GET("/:id/messages", h.Transcript)
	return r, manager
}

func createSession(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func multipartImage(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "prescription.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

func postImage(t *testing.T, r *gin.Engine, id string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartImage(t, data)
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extractions", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postMessage(r *gin.Engine, id, message string) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(SendMessageRequest{Message: message})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/messages", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSessionHandlerExtract(t *testing.T) {
	r, _ := setupSessionRouter(&mockVisionModel{}, &mockStarter{})
	id := createSession(t, r)

	w := postImage(t, r, id, pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result session.ExtractionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.NotNil(t, result.Summary)
	assert.Equal(t, "Jane Doe", result.Summary.PatientName)
	assert.Equal(t, []string{"💊 Paracetamol – 650mg – Dosage: 1-0-1 – Duration: 5 days"}, result.Summary.Medicines)
	assert.Equal(t, "None", result.Summary.Notes)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/extractions/latest", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionHandlerExtractMalformedShowsRaw(t *testing.T) {
	vision := &mockVisionModel{GenerateFunc: func(ctx context.Context, prompt string, image []byte, mimeType string) (*llm.Reply, error) {
		return &llm.Reply{Content: "Sorry, the handwriting is illegible."}, nil
	}}
	r, _ := setupSessionRouter(vision, &mockStarter{})
	id := createSession(t, r)

	w := postImage(t, r, id, pngBytes(t))
	require.Equal(t, http.StatusOK, w.Code)

	var result session.ExtractionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Nil(t, result.Summary)
	assert.Equal(t, "Sorry, the handwriting is illegible.", result.Raw)
}

func TestSessionHandlerExtractErrors(t *testing.T) {
	r, _ := setupSessionRouter(&mockVisionModel{}, &mockStarter{})
	id := createSession(t, r)

	w := postImage(t, r, id, []byte("not an image"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 缺少 file 字段
	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/extractions", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/extractions/latest", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = postImage(t, r, "missing", pngBytes(t))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandlerSendMessage(t *testing.T) {
	r, _ := setupSessionRouter(&mockVisionModel{}, &mockStarter{})
	id := createSession(t, r)

	w := postMessage(r, id, "What is Paracetamol for?")
	require.Equal(t, http.StatusOK, w.Code)

	var reply session.ChatReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	require.Len(t, reply.Transcript, 2)
	assert.Equal(t, domain.ChatRoleUser, reply.Transcript[0].Role)
	assert.Equal(t, "What is Paracetamol for?", reply.Transcript[0].Content)
	assert.Equal(t, domain.ChatRoleAssistant, reply.Transcript[1].Role)
	assert.False(t, reply.Failed)

	// 空消息不改变记录
	w = postMessage(r, id, "  ")
	require.Equal(t, http.StatusOK, w.Code)
	var empty session.ChatReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &empty))
	assert.Nil(t, empty.Turn)
	assert.Len(t, empty.Transcript, 2)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/messages", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Transcript []domain.ChatTurn `json:"transcript"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Transcript, 2)
}

func TestSessionHandlerSendMessageFailure(t *testing.T) {
	starter := &mockStarter{SendFunc: func(ctx context.Context, text string) (*llm.Reply, error) {
		return nil, errors.New("quota exceeded")
	}}
	r, _ := setupSessionRouter(&mockVisionModel{}, starter)
	id := createSession(t, r)

	w := postMessage(r, id, "hello")
	require.Equal(t, http.StatusOK, w.Code)

	var reply session.ChatReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.True(t, reply.Failed)
	require.Len(t, reply.Transcript, 2)
	assert.Contains(t, reply.Transcript[1].Content, "❌ Error:")
}

func TestSessionHandlerLifecycle(t *testing.T) {
	r, manager := setupSessionRouter(&mockVisionModel{}, &mockStarter{})
	id := createSession(t, r)
	assert.Equal(t, 1, manager.Count())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
