package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/rmcs/game"
	"github.com/wfunc/rmcs/network"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, mutate ...func(*Options)) *GameServer {
	t.Helper()
	opts := Options{
		PublicBaseURL: "http://example.test",
		Shuffler:      game.FixedShuffler,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return NewGameServer(opts)
}

func call(t *testing.T, h http.Handler, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

type table struct {
	roomID  string
	players []string // seat order: Raja, Mantri, Chor, Sipahi under the fixed deal
}

func seatTable(t *testing.T, h http.Handler) table {
	t.Helper()
	code, created := call(t, h, "POST", "/room/create", gin.H{"roomName": "Friday", "playerName": "P1"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Room created successfully", created["message"])

	roomID := created["roomId"].(string)
	code, joined := call(t, h, "POST", "/room/join-multiple", gin.H{
		"roomId":      roomID,
		"playerNames": []string{"P2", "P3", "P4"},
	})
	require.Equal(t, http.StatusOK, code)

	players := []string{created["playerId"].(string)}
	for _, p := range joined["added"].([]interface{}) {
		players = append(players, p.(map[string]interface{})["id"].(string))
	}
	require.Len(t, players, 4)
	return table{roomID: roomID, players: players}
}

func TestServer_FullRound(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)

	code, body := call(t, h, "POST", "/room/assign/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Roles assigned for round 1", body["message"])

	code, body = call(t, h, "GET", "/role/me/"+tb.roomID+"/"+tb.players[1], nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Mantri", body["role"])
	assert.Equal(t, tb.players[1], body["playerId"])

	code, body = call(t, h, "POST", "/guess/"+tb.roomID, gin.H{
		"playerId":        tb.players[1],
		"guessedPlayerId": tb.players[2],
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "correct", body["result"])
	assert.Equal(t, tb.players[2], body["actualChorId"])

	code, body = call(t, h, "GET", "/result/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["round"])
	players := body["players"].([]interface{})
	require.Len(t, players, 4)
	first := players[0].(map[string]interface{})
	assert.Equal(t, "Raja", first["role"])
	assert.Equal(t, 1000.0, first["score"])

	code, body = call(t, h, "GET", "/leaderboard/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)
	var scores []float64
	for _, row := range body["leaderboard"].([]interface{}) {
		scores = append(scores, row.(map[string]interface{})["score"].(float64))
	}
	assert.Equal(t, []float64{1000, 800, 500, 0}, scores)

	code, body = call(t, h, "GET", "/history/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rounds"].([]interface{}), 1)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, 1.0, stats["correctGuesses"])
}

func TestServer_GetPlayersWithWaitlist(t *testing.T) {
	h := newTestServer(t).Handler()

	_, created := call(t, h, "POST", "/room/create", gin.H{"roomName": "R", "playerName": "Alice"})
	roomID := created["roomId"].(string)

	code, joined := call(t, h, "POST", "/room/join-multiple", gin.H{
		"roomId":      roomID,
		"playerNames": []string{"B", "C", "D", "E", "F"},
	})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, joined["added"].([]interface{}), 3)
	assert.Len(t, joined["waitlisted"].([]interface{}), 2)
	assert.Equal(t, "Players processed successfully", joined["message"])

	code, body := call(t, h, "GET", "/room/players/"+roomID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, roomID, body["roomId"])
	assert.Len(t, body["players"].([]interface{}), 4)
	assert.Equal(t, 2.0, body["waitlistCount"])
}

func TestServer_RoleIsNullBeforeDeal(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)

	code, body := call(t, h, "GET", "/role/me/"+tb.roomID+"/"+tb.players[0], nil)
	require.Equal(t, http.StatusOK, code)
	role, present := body["role"]
	assert.True(t, present)
	assert.Nil(t, role)
}

func TestServer_ErrorMapping(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)

	_, created := call(t, h, "POST", "/room/create", gin.H{"roomName": "Small", "playerName": "Solo"})
	small := created["roomId"].(string)

	testCases := []struct {
		name     string
		method   string
		path     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{"join unknown room", "POST", "/room/join-multiple", gin.H{"roomId": "nope", "playerNames": []string{"X"}}, http.StatusNotFound, "Room not found"},
		{"players unknown room", "GET", "/room/players/nope", nil, http.StatusNotFound, "Room not found"},
		{"assign unknown room", "POST", "/room/assign/nope", nil, http.StatusNotFound, "Room not found"},
		{"assign too few", "POST", "/room/assign/" + small, nil, http.StatusBadRequest, "Exactly 4 players are required to start the game"},
		{"role unknown player", "GET", "/role/me/" + tb.roomID + "/ghost", nil, http.StatusNotFound, "Player not found"},
		{"guess before deal", "POST", "/guess/" + tb.roomID, gin.H{"playerId": tb.players[1], "guessedPlayerId": tb.players[2]}, http.StatusBadRequest, "Roles not assigned yet"},
		{"result before deal", "GET", "/result/" + tb.roomID, nil, http.StatusBadRequest, "Roles not assigned yet"},
		{"leaderboard unknown room", "GET", "/leaderboard/nope", nil, http.StatusNotFound, "Room not found"},
		{"malformed json", "POST", "/room/create", "{nope", http.StatusBadRequest, "invalid request body"},
		{"missing fields", "POST", "/room/create", gin.H{"roomName": "R"}, http.StatusBadRequest, "invalid request body"},
		{"blank name", "POST", "/room/create", gin.H{"roomName": "R", "playerName": "   "}, http.StatusBadRequest, "Player and room names must not be blank"},
		{"qr unknown room", "GET", "/room/qr/nope", nil, http.StatusNotFound, "Room not found"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := call(t, h, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.wantCode, code)
			assert.Equal(t, tc.wantErr, body["error"])
		})
	}
}

func TestServer_GuessSequencing(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)

	code, _ := call(t, h, "POST", "/room/assign/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := call(t, h, "GET", "/result/"+tb.roomID, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Mantri has not guessed yet", body["error"])

	for _, seat := range []int{0, 2, 3} {
		code, body = call(t, h, "POST", "/guess/"+tb.roomID, gin.H{
			"playerId":        tb.players[seat],
			"guessedPlayerId": tb.players[2],
		})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "Only Mantri can guess", body["error"])
	}

	code, body = call(t, h, "POST", "/guess/"+tb.roomID, gin.H{
		"playerId":        tb.players[1],
		"guessedPlayerId": tb.players[0],
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "incorrect", body["result"])

	code, _ = call(t, h, "POST", "/guess/"+tb.roomID, gin.H{
		"playerId":        tb.players[1],
		"guessedPlayerId": tb.players[2],
	})
	assert.Equal(t, http.StatusBadRequest, code, "a round takes one guess")

	_, body = call(t, h, "GET", "/leaderboard/"+tb.roomID, nil)
	board := body["leaderboard"].([]interface{})
	scores := map[string]float64{}
	for _, row := range board {
		m := row.(map[string]interface{})
		scores[m["id"].(string)] = m["score"].(float64)
	}
	assert.Equal(t, map[string]float64{
		tb.players[0]: 1000,
		tb.players[1]: 0,
		tb.players[2]: 800,
		tb.players[3]: 500,
	}, scores)
}

func TestServer_LeavePromotes(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)
	_, joined := call(t, h, "POST", "/room/join-multiple", gin.H{"roomId": tb.roomID, "playerNames": []string{"W"}})
	waiting := joined["waitlisted"].([]interface{})[0].(map[string]interface{})["id"].(string)

	code, body := call(t, h, "POST", "/room/leave/"+tb.roomID, gin.H{"playerId": tb.players[3]})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, tb.players[3], body["removed"].(map[string]interface{})["id"])
	assert.Equal(t, waiting, body["promoted"].(map[string]interface{})["id"])

	code, body = call(t, h, "POST", "/room/leave/"+tb.roomID, gin.H{"playerId": "ghost"})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Player not found", body["error"])
}

func TestServer_QRCode(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/room/qr/"+tb.roomID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")))
}

func TestServer_MetricsAndHealth(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)
	call(t, h, "POST", "/room/assign/"+tb.roomID, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rmcs_rounds_started_total 1")
	assert.Contains(t, rec.Body.String(), "rmcs_active_rooms 1")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, "healthy", rec.Body.String())
}

func TestServer_RateLimit(t *testing.T) {
	h := newTestServer(t, func(o *Options) {
		o.RateLimit = 0.001
		o.RateBurst = 2
	}).Handler()

	codes := []int{}
	for i := 0; i < 3; i++ {
		code, _ := call(t, h, "GET", "/room/players/nope", nil)
		codes = append(codes, code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)
}

func readPacket(t *testing.T, conn *websocket.Conn) *network.Packet {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	packet, err := network.Decode(data)
	require.NoError(t, err)
	return packet
}

func TestServer_WebSocketWatcher(t *testing.T) {
	gs := newTestServer(t)
	srv := httptest.NewServer(gs.Handler())
	defer srv.Close()
	tb := seatTable(t, gs.Handler())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + tb.roomID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	snapshot := readPacket(t, conn)
	assert.Equal(t, uint16(network.MsgTypePlayersChanged), snapshot.MsgID)
	var players map[string]interface{}
	require.NoError(t, json.Unmarshal(snapshot.Data, &players))
	assert.Len(t, players["players"].([]interface{}), 4)

	code, _ := call(t, gs.Handler(), "POST", "/room/assign/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)

	started := readPacket(t, conn)
	assert.Equal(t, uint16(network.MsgTypeRoundStarted), started.MsgID)
	assert.JSONEq(t, `{"roomId":"`+tb.roomID+`","round":1}`, string(started.Data))

	heartbeat, err := network.Encode(network.MsgTypeHeartbeat, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, heartbeat))
	assert.Equal(t, uint16(network.MsgTypeHeartbeat), readPacket(t, conn).MsgID)

	// Removing the room disconnects its watchers.
	require.True(t, gs.Rooms().RemoveRoom(tb.roomID))
	closed := readPacket(t, conn)
	assert.Equal(t, uint16(network.MsgTypeRoomClosed), closed.MsgID)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestServer_WebSocketUnknownRoom(t *testing.T) {
	gs := newTestServer(t)
	srv := httptest.NewServer(gs.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_SweeperExpiresIdleRooms(t *testing.T) {
	gs := newTestServer(t, func(o *Options) {
		o.RoomTTL = time.Nanosecond
		o.SweepInterval = 10 * time.Millisecond
	})
	_, _, err := gs.Rooms().CreateRoom("Idle", "Host")
	require.NoError(t, err)

	gs.startSweeper()
	defer gs.timers.Stop()

	assert.Eventually(t, func() bool { return gs.Rooms().Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestServer_WaitlistedPlayerAtTheTable(t *testing.T) {
	h := newTestServer(t).Handler()
	tb := seatTable(t, h)
	_, joined := call(t, h, "POST", "/room/join-multiple", gin.H{"roomId": tb.roomID, "playerNames": []string{"Late"}})
	waiting := joined["waitlisted"].([]interface{})[0].(map[string]interface{})["id"].(string)

	code, _ := call(t, h, "POST", "/room/assign/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)

	code, body := call(t, h, "GET", "/role/me/"+tb.roomID+"/"+waiting, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Player not found", body["error"])

	code, body = call(t, h, "POST", "/guess/"+tb.roomID, gin.H{
		"playerId":        tb.players[1],
		"guessedPlayerId": waiting,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "incorrect", body["result"])
	assert.Equal(t, tb.players[2], body["actualChorId"])

	_, body = call(t, h, "GET", "/result/"+tb.roomID, nil)
	var got []float64
	for _, p := range body["players"].([]interface{}) {
		got = append(got, p.(map[string]interface{})["score"].(float64))
	}
	assert.Equal(t, []float64{1000, 0, 800, 500}, got)
}

func TestServer_OversizedNameKeepsWatchers(t *testing.T) {
	gs := newTestServer(t)
	srv := httptest.NewServer(gs.Handler())
	defer srv.Close()
	tb := seatTable(t, gs.Handler())

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + tb.roomID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	readPacket(t, conn)

	code, body := call(t, gs.Handler(), "POST", "/room/join-multiple", gin.H{
		"roomId":      tb.roomID,
		"playerNames": []string{strings.Repeat("x", 70000)},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Player and room names are limited to 64 characters", body["error"])

	code, _ = call(t, gs.Handler(), "POST", "/room/assign/"+tb.roomID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint16(network.MsgTypeRoundStarted), readPacket(t, conn).MsgID)
}
