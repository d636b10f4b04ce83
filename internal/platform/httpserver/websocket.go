package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	contractsv1 "atomsi/contracts/gen/events/v1"
	"atomsi/internal/platform/messaging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	defaultPingInterval = 30 * time.Second
	writeWait           = 10 * time.Second
)

type NotifierOptions struct {
	// JWTSecret verifies the optional token query parameter (HS256).
	JWTSecret    string
	PingInterval time.Duration
	Logger       *slog.Logger
}

// Notifier streams bus events to WebSocket sessions.
type Notifier struct {
	bus          *messaging.Bus
	secret       []byte
	pingInterval time.Duration
	logger       *slog.Logger
	upgrader     websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	id     string
	member string
	conn   *websocket.Conn
}

type welcomeFrame struct {
	Type          string   `json:"type"`
	ClientID      string   `json:"client_id"`
	Message       string   `json:"message"`
	Authenticated bool     `json:"authenticated"`
	Member        string   `json:"member,omitempty"`
	Events        []string `json:"events,omitempty"`
}

type InfoResponse struct {
	TotalConnections    int            `json:"total_connections"`
	ConnectionsByMember map[string]int `json:"connections_by_member"`
	QueueCapacity       int            `json:"queue_capacity"`
	BusSubscriberCount  int            `json:"bus_subscriber_count"`
}

type sessionClaims struct {
	Address string `json:"addr"`
	jwt.RegisteredClaims
}

var errInvalidSessionToken = errors.New("invalid session token")

func NewNotifier(bus *messaging.Bus, opts NotifierOptions) *Notifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = defaultPingInterval
	}
	return &Notifier{
		bus:          bus,
		secret:       []byte(opts.JWTSecret),
		pingInterval: pingInterval,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[string]*session),
	}
}

// ParseEventFilter reads a comma-separated list of event kinds. Unknown kinds
// are ignored; an empty result means every kind.
func ParseEventFilter(raw string) []contractsv1.EventType {
	var filter []contractsv1.EventType
	for _, part := range strings.Split(raw, ",") {
		if eventType, ok := contractsv1.ParseEventType(part); ok {
			filter = append(filter, eventType)
		}
	}
	return filter
}

// memberFromToken returns the "addr" claim of a valid HS256 token.
func (n *Notifier) memberFromToken(raw string) (string, error) {
	if len(n.secret) == 0 {
		return "", errInvalidSessionToken
	}
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return n.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidSessionToken, err)
	}
	if strings.TrimSpace(claims.Address) == "" {
		return "", errInvalidSessionToken
	}
	return strings.TrimSpace(claims.Address), nil
}

func (n *Notifier) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	member := ""
	if token := strings.TrimSpace(query.Get("token")); token != "" {
		address, err := n.memberFromToken(token)
		if err != nil {
			n.logger.Warn("websocket token rejected",
				"event", "websocket_token_rejected",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err.Error(),
			)
			writeError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
			return
		}
		member = address
	}

	filter := ParseEventFilter(query.Get("events"))
	sub, err := n.bus.Subscribe(filter...)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "bus_closed", err.Error())
		return
	}
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		sub.Close()
		return
	}

	sess := &session{id: uuid.NewString(), member: member, conn: conn}
	n.register(sess)
	defer func() {
		sub.Close()
		n.unregister(sess)
		_ = conn.Close()
	}()

	welcome := welcomeFrame{
		Type:          "welcome",
		ClientID:      sess.id,
		Message:       "connected to event stream",
		Authenticated: member != "",
		Member:        member,
	}
	for _, eventType := range filter {
		welcome.Events = append(welcome.Events, string(eventType))
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(welcome); err != nil {
		return
	}
	n.logger.Info("websocket session opened",
		"event", "websocket_session_opened",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"client_id", sess.id,
		"member", member,
		"filter_size", len(filter),
	)

	readDone := make(chan struct{})
	go n.readLoop(conn, readDone)
	n.writeLoop(sess, sub, readDone)

	n.logger.Info("websocket session closed",
		"event", "websocket_session_closed",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"client_id", sess.id,
		"dropped", sub.Dropped(),
	)
}

// readLoop consumes control frames so pongs and close frames are processed.
func (n *Notifier) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	readWait := n.pingInterval * 2
	_ = conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop is the only writer after the welcome frame.
func (n *Notifier) writeLoop(sess *session, sub *messaging.Subscription, readDone <-chan struct{}) {
	ticker := time.NewTicker(n.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-readDone:
			return
		case event, ok := <-sub.Events():
			_ = sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sess.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription closed"))
				return
			}
			if err := sess.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := sess.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (n *Notifier) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, n.Info())
}

func (n *Notifier) Info() InfoResponse {
	n.mu.Lock()
	defer n.mu.Unlock()
	byMember := make(map[string]int)
	for _, sess := range n.sessions {
		if sess.member != "" {
			byMember[sess.member]++
		}
	}
	return InfoResponse{
		TotalConnections:    len(n.sessions),
		ConnectionsByMember: byMember,
		QueueCapacity:       n.bus.Capacity(),
		BusSubscriberCount:  n.bus.SubscriberCount(),
	}
}

// CloseAll drops every open session.
func (n *Notifier) CloseAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sess := range n.sessions {
		_ = sess.conn.Close()
	}
}

func (n *Notifier) register(sess *session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sessions[sess.id] = sess
}

func (n *Notifier) unregister(sess *session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.sessions, sess.id)
}
