package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkerrigan/roomrelay/internal/dependencies/mocks"
	"github.com/mkerrigan/roomrelay/internal/services/account"
	"github.com/mkerrigan/roomrelay/internal/services/room"
	"github.com/mkerrigan/roomrelay/internal/storage/memory"
	"github.com/mkerrigan/roomrelay/internal/testutil"
	"github.com/mkerrigan/roomrelay/internal/transport"
)

func newTestRouter(t *testing.T) (http.Handler, *room.Manager, *account.Service) {
	t.Helper()
	logger := testutil.NopLogger()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	rooms := room.NewManager(clk, logger)
	accounts := account.New(memory.New(), clk, nil, logger)
	registry := transport.NewRegistry(mocks.NewMockRandom(), logger)

	router := NewRouter(RouterConfig{
		Logger:   logger,
		Rooms:    rooms,
		Accounts: accounts,
		Registry: registry,
	})
	return router, rooms, accounts
}

func doGet(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doGet(t, router, "/api/v1/health")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRoomsSnapshot(t *testing.T) {
	router, rooms, _ := newTestRouter(t)
	rooms.Join("room1", "conn-a")
	rooms.Join("room1", "conn-b")

	rr := doGet(t, router, "/api/v1/rooms")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body []room.RoomSnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "room1", body[0].GameID)
	assert.Equal(t, "conn-a", body[0].Seat0)
	assert.Equal(t, "conn-b", body[0].Seat1)
}

func TestStats(t *testing.T) {
	router, rooms, accounts := newTestRouter(t)
	rooms.Join("room1", "conn-a")
	require.NoError(t, accounts.SignUp(context.Background(), "alice", "p1"))

	rr := doGet(t, router, "/api/v1/stats")
	assert.Equal(t, http.StatusOK, rr.Code)

	var body StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Rooms)
	assert.Equal(t, 1, body.Accounts)
	assert.Equal(t, 0, body.Connections)
}

func TestUnknownRouteIs404(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := doGet(t, router, "/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
