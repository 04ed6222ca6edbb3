package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"Turing/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsConn adapts a websocket connection to the session Conn interface.
// One JSON message per request, one per reply; the websocket layer owns
// the framing.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadRequest() (*models.Request, error) {
	var req models.Request
	if err := c.conn.ReadJSON(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (c *wsConn) WriteReply(reply *models.Reply) error {
	return c.conn.WriteJSON(reply)
}

// wsNotifier delivers invite notifications over a dedicated websocket
// connection, the live notification channel of one logged-in user.
type wsNotifier struct {
	conn *websocket.Conn
}

func (n *wsNotifier) Deliver(payload []byte) error {
	return n.conn.WriteMessage(websocket.TextMessage, payload)
}

// SessionHandler upgrades client connections and runs one Session per
// connection.
type SessionHandler struct {
	deps Deps
}

// NewSessionHandler creates the handler for the session endpoint.
func NewSessionHandler(deps Deps) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// ServeHTTP handles GET /ws/session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	log.Printf("Client connected from %s", conn.RemoteAddr())
	NewSession(&wsConn{conn: conn}, h.deps).Run()
}

// NotificationHandler registers per-user notification channels. The
// client connects after logging in, sends its credentials once, then
// keeps the connection open to receive invite notifications.
type NotificationHandler struct {
	deps Deps
}

// NewNotificationHandler creates the handler for the notification
// endpoint.
func NewNotificationHandler(deps Deps) *NotificationHandler {
	return &NotificationHandler{deps: deps}
}

// ServeHTTP handles GET /ws/notifications.
func (h *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	var creds models.SignUpInput
	if err := conn.ReadJSON(&creds); err != nil {
		log.Println("Notification registration read error:", err)
		return
	}

	notifier := &wsNotifier{conn: conn}
	err = h.deps.Notifications.RegisterChannel(creds.Username, creds.Password, notifier)
	if err != nil {
		conn.WriteJSON(models.Error(err.Error()))
		return
	}
	conn.WriteJSON(models.Ack())
	log.Printf("Notification channel registered for %s", creds.Username)

	// block until the client goes away, then drop the channel. The
	// clear is guarded so a stale connection cannot tear down a fresh
	// registration made after a reconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	if user := h.deps.Users.Get(creds.Username); user != nil {
		user.ClearNotifierIf(notifier)
	}
	log.Printf("Notification channel closed for %s", creds.Username)
}
