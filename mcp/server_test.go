package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"mcph/crate-api/internal/crate"
	"mcph/crate-api/model"
	"mcph/crate-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeStore keeps uploaded bytes in memory
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[key] = data
	return nil
}

func (f *fakeStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such object")
	}

	return data, nil
}

func (f *fakeStore) Head(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[key]
	if !ok {
		return 0, errors.New("no such object")
	}

	return int64(len(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, key)
	return nil
}

func (f *fakeStore) SignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (f *fakeStore) SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://signed.example/put/" + key, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *crate.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(model.Crate{}))

	crates := crate.NewService(db, newFakeStore(), security.New())
	server := NewServer(crates)

	r := gin.New()
	r.POST("/mcp", func(c *gin.Context) {
		c.Set("requestID", "test")
		c.Set("userID", c.GetHeader("X-Test-User"))
	}, server.Handle)

	return r, crates
}

func rpc(t *testing.T, r *gin.Engine, userID string, body string) rpcResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp rpcResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func callTool(t *testing.T, r *gin.Engine, userID, tool string, args any) toolResult {
	t.Helper()

	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]any{
			"name":      tool,
			"arguments": json.RawMessage(argsJSON),
		},
	})
	require.NoError(t, err)

	resp := rpc(t, r, userID, string(body))
	require.Nil(t, resp.Error)

	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)

	var result toolResult
	require.NoError(t, json.Unmarshal(raw, &result))
	return result
}

func resultJSON(t *testing.T, res toolResult) map[string]any {
	t.Helper()

	require.False(t, res.IsError, "tool returned error: %v", res.Content)
	require.Len(t, res.Content, 1)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &out))
	return out
}

func TestInitialize(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := rpc(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	assert.Equal(t, protocolVersion, result["protocolVersion"])
}

func TestToolsList(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := rpc(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	require.Nil(t, resp.Error)

	result := resp.Result.(map[string]any)
	tools := result["tools"].([]any)
	assert.Len(t, tools, len(toolDefs))
}

func TestNotificationGetsNoResponse(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp",
		bytes.NewBufferString(`{"jsonrpc":"2.0","method":"notifications/initialized"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestUnknownMethod(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := rpc(t, r, "", `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestUploadAndGetRoundTrip(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "notes.txt",
		"data":      "remember the milk",
		"title":     "Shopping",
	})
	out := resultJSON(t, res)

	crateInfo := out["crate"].(map[string]any)
	crateID := crateInfo["id"].(string)
	require.NotEmpty(t, crateID)

	res = callTool(t, r, "u1", "crates_get", map[string]any{"id": crateID})
	out = resultJSON(t, res)
	assert.Equal(t, "remember the milk", out["data"])
}

func TestGetUnknownCrateIsToolError(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_get", map[string]any{"id": "nope"})
	require.True(t, res.IsError)
	assert.Equal(t, "crate not found", res.Content[0].Text)
}

func TestPrivateCrateDeniedOverTools(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "secret.txt",
		"data":      "owner only",
	})
	crateID := resultJSON(t, res)["crate"].(map[string]any)["id"].(string)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID})
	require.True(t, res.IsError)
	assert.Equal(t, "not permitted", res.Content[0].Text)

	// Anonymous callers with no API key get the same denial
	res = callTool(t, r, "", "crates_get", map[string]any{"id": crateID})
	require.True(t, res.IsError)
	assert.Equal(t, "not permitted", res.Content[0].Text)
}

func TestShareUnshareOverTools(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "doc.md",
		"data":      "# shared doc",
	})
	crateID := resultJSON(t, res)["crate"].(map[string]any)["id"].(string)

	res = callTool(t, r, "u1", "crates_share", map[string]any{"id": crateID})
	resultJSON(t, res)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID})
	out := resultJSON(t, res)
	assert.Equal(t, "# shared doc", out["data"])

	res = callTool(t, r, "u1", "crates_unshare", map[string]any{"id": crateID})
	resultJSON(t, res)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID})
	assert.True(t, res.IsError)
}

func TestPasswordGateOverTools(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "gated.txt",
		"data":      "behind a password",
		"password":  "hunter2",
	})
	crateID := resultJSON(t, res)["crate"].(map[string]any)["id"].(string)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID})
	require.True(t, res.IsError)
	assert.Equal(t, "password required", res.Content[0].Text)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID, "password": "wrong"})
	require.True(t, res.IsError)
	assert.Equal(t, "invalid password", res.Content[0].Text)

	res = callTool(t, r, "u2", "crates_get", map[string]any{"id": crateID, "password": "hunter2"})
	out := resultJSON(t, res)
	assert.Equal(t, "behind a password", out["data"])
}

func TestListRequiresAuthOverTools(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "", "crates_list", map[string]any{})
	require.True(t, res.IsError)
	assert.Equal(t, "not permitted", res.Content[0].Text)

	res = callTool(t, r, "u1", "crates_list", map[string]any{})
	out := resultJSON(t, res)
	assert.NotNil(t, out["crates"])
}

func TestDownloadLinkOverTools(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "blob.txt",
		"data":      "downloadable",
	})
	crateID := resultJSON(t, res)["crate"].(map[string]any)["id"].(string)

	res = callTool(t, r, "u1", "crates_get_download_link", map[string]any{
		"id":         crateID,
		"expires_in": 60,
	})
	out := resultJSON(t, res)
	assert.NotEmpty(t, out["url"])
	assert.NotEmpty(t, out["expires_at"])
}

func TestSharePublicWithPasswordIsToolError(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "u1", "crates_upload", map[string]any{
		"file_name": "both.txt",
		"data":      "contradiction",
	})
	crateID := resultJSON(t, res)["crate"].(map[string]any)["id"].(string)

	res = callTool(t, r, "u1", "crates_share", map[string]any{
		"id":       crateID,
		"public":   true,
		"password": "hunter2",
	})
	require.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "public and password")
}

func TestUnknownTool(t *testing.T) {
	r, _ := newTestRouter(t)

	res := callTool(t, r, "", "crates_explode", map[string]any{})
	require.True(t, res.IsError)
	assert.Contains(t, res.Content[0].Text, "unknown tool")
}
