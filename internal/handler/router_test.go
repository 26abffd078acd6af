package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/cyber-shield/backend/internal/model/knowledge"
	chatService "github.com/zhouzirui/cyber-shield/backend/internal/service/chat"
	"github.com/zhouzirui/cyber-shield/backend/internal/service/dialogue"
)

func TestRouterMountsAPI(t *testing.T) {
	content, err := knowledge.Default()
	require.NoError(t, err)
	store := knowledge.NewMemoryStore(content)
	engine, err := dialogue.NewEngine(context.Background(), store)
	require.NoError(t, err)
	router := NewRouter(store, chatService.NewService(engine))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/menu", nil))
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/session", bytes.NewBufferString(`{"name":"Bob"}`)))
	assert.Equal(t, http.StatusCreated, resp.Code)

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/menu", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
