package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	contractsv1 "atomsi/contracts/gen/events/v1"
)

func startWSServer(t *testing.T) (*httptest.Server, *Server) {
	t.Helper()
	server, _ := newTestServer(t)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts, server
}

func wsURL(ts *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws" + query
}

func dialWS(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s: %v (status %d)", url, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readWelcome(t *testing.T, conn *websocket.Conn) welcomeFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var welcome welcomeFrame
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != "welcome" || welcome.ClientID == "" {
		t.Fatalf("unexpected welcome frame %+v", welcome)
	}
	return welcome
}

func signToken(t *testing.T, secret string, address string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func publish(t *testing.T, server *Server, eventType contractsv1.EventType, data any) {
	t.Helper()
	event, err := contractsv1.NewDomainEvent(eventType, time.Now(), data)
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := server.notifications.bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestWebSocketDeliversOnlyFilteredEvents(t *testing.T) {
	ts, server := startWSServer(t)
	conn := dialWS(t, wsURL(ts, "?events=transaction_created,not_a_kind"))

	welcome := readWelcome(t, conn)
	if welcome.Authenticated {
		t.Fatalf("expected anonymous session")
	}
	if len(welcome.Events) != 1 || welcome.Events[0] != string(contractsv1.EventTransactionCreated) {
		t.Fatalf("expected filter of transaction_created only, got %v", welcome.Events)
	}

	publish(t, server, contractsv1.EventProposalVoted, contractsv1.ProposalVotedData{
		ProposalID: "p-1", Voter: "0xV", Vote: "for", VotingPower: 1,
	})
	publish(t, server, contractsv1.EventTransactionCreated, contractsv1.TransactionCreatedData{
		TransactionID: "tx-1", Recipient: "0xR", Token: "USDC", Amount: 10,
	})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event contractsv1.DomainEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.EventType != contractsv1.EventTransactionCreated {
		t.Fatalf("expected transaction_created, got %s", event.EventType)
	}
	var data contractsv1.TransactionCreatedData
	if err := event.Decode(&data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.TransactionID != "tx-1" || data.Amount != 10 {
		t.Fatalf("unexpected payload %+v", data)
	}
}

func TestWebSocketPreservesPublishOrder(t *testing.T) {
	ts, server := startWSServer(t)
	conn := dialWS(t, wsURL(ts, ""))
	readWelcome(t, conn)

	for i := 1; i <= 5; i++ {
		publish(t, server, contractsv1.EventProposalVoted, contractsv1.ProposalVotedData{
			ProposalID: "p-order", Voter: "0xV", Vote: "for", VotingPower: int64(i),
		})
	}
	for want := int64(1); want <= 5; want++ {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event contractsv1.DomainEvent
		if err := conn.ReadJSON(&event); err != nil {
			t.Fatalf("read event %d: %v", want, err)
		}
		var data contractsv1.ProposalVotedData
		if err := event.Decode(&data); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if data.VotingPower != want {
			t.Fatalf("expected event %d, got %d", want, data.VotingPower)
		}
	}
}

func TestWebSocketAuthenticatesSessionToken(t *testing.T) {
	ts, _ := startWSServer(t)
	token := signToken(t, testJWTSecret, "0xM", time.Now().Add(time.Hour))
	conn := dialWS(t, wsURL(ts, "?token="+token))

	welcome := readWelcome(t, conn)
	if !welcome.Authenticated || welcome.Member != "0xM" {
		t.Fatalf("expected authenticated 0xM session, got %+v", welcome)
	}

	resp, err := http.Get(ts.URL + "/ws/info")
	if err != nil {
		t.Fatalf("get info: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var info InfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode info: %v", err)
	}
	if info.TotalConnections != 1 || info.ConnectionsByMember["0xM"] != 1 {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.QueueCapacity != 16 || info.BusSubscriberCount != 1 {
		t.Fatalf("unexpected bus figures %+v", info)
	}
}

func TestWebSocketRejectsInvalidTokens(t *testing.T) {
	ts, _ := startWSServer(t)
	cases := map[string]string{
		"wrong secret": signToken(t, "other-secret", "0xM", time.Now().Add(time.Hour)),
		"expired":      signToken(t, testJWTSecret, "0xM", time.Now().Add(-time.Minute)),
		"garbage":      "not-a-jwt",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "?token="+token), nil)
			if err == nil {
				t.Fatalf("expected handshake to fail")
			}
			if resp == nil || resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 handshake response, got %v", resp)
			}
		})
	}
}

func TestWebSocketClosesWhenBusCloses(t *testing.T) {
	ts, server := startWSServer(t)
	conn := dialWS(t, wsURL(ts, ""))
	readWelcome(t, conn)

	server.notifications.bus.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Fatalf("expected going-away close frame, got %v", err)
	}
}

func TestParseEventFilter(t *testing.T) {
	filter := ParseEventFilter(" proposal_voted, bogus ,TRANSACTION_EXECUTED,")
	if len(filter) != 2 {
		t.Fatalf("expected two known kinds, got %v", filter)
	}
	if filter[0] != contractsv1.EventProposalVoted || filter[1] != contractsv1.EventTransactionExecuted {
		t.Fatalf("unexpected filter %v", filter)
	}
	if got := ParseEventFilter(""); len(got) != 0 {
		t.Fatalf("expected empty filter, got %v", got)
	}
}
