package stubserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomfeed/internal/rooms"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	srv := New(log)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, envelope) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	defer resp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp, env
}

func dialStream(t *testing.T, srv *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	// the hub registers asynchronously after the handshake
	require.Eventually(t, func() bool { return srv.Subscribers() > 0 },
		2*time.Second, 5*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) rooms.ChangeEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev rooms.ChangeEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

func TestAddMemberEmitsUpdate(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Seed(rooms.Room{ID: "1", Name: "General"})
	conn := dialStream(t, srv, ts)

	resp, env := postJSON(t, ts.URL+"/rooms/1/members", rooms.Member{
		User: rooms.User{Username: "lin"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, env.Success)

	ev := readEvent(t, conn)
	assert.Equal(t, rooms.EventUpdate, ev.Kind)
	require.NotNil(t, ev.Room)
	require.Len(t, ev.Room.Members, 1)
	assert.Equal(t, "lin", ev.Room.Members[0].User.Username)
	assert.NotEmpty(t, ev.Room.Members[0].User.ID, "missing member ids are minted")
}

func TestAddMemberUnknownRoom(t *testing.T) {
	_, ts := newTestServer(t)

	resp, env := postJSON(t, ts.URL+"/rooms/nope/members", rooms.Member{
		User: rooms.User{Username: "lin"},
	})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
}

func TestDeleteRoomEmitsDelete(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.Seed(rooms.Room{ID: "1", Name: "General"})
	conn := dialStream(t, srv, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/rooms/1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ev := readEvent(t, conn)
	assert.Equal(t, rooms.EventDelete, ev.Kind)
	assert.Equal(t, "1", ev.RoomID)

	// the list no longer contains it
	listResp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer listResp.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&env))
	var list []rooms.Room
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)
}

func TestCreateValidationFailure(t *testing.T) {
	_, ts := newTestServer(t)

	resp, env := postJSON(t, ts.URL+"/rooms/add", map[string]string{"name": "ab"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.False(t, env.Success)
	var ferrs map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &ferrs))
	assert.Contains(t, ferrs, "name")
}
