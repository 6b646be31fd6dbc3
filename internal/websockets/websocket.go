package websockets

import (
	"time"

	"fieldvisit/internal/events"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// The live feed pushes assignment lifecycle events to back-office
// dashboards. Technicians poll; only admin and auditor connections are
// accepted.

const (
	MESSAGE_TYPE_AUTH_REQUEST = "auth_request"
	MESSAGE_TYPE_AUTH_SUCCESS = "auth_success"
	MESSAGE_TYPE_AUTH_FAILURE = "auth_failure"
	MESSAGE_TYPE_EVENT        = "event"

	WRITE_TIMEOUT     = 10 * time.Second
	AUTH_READ_TIMEOUT = 30 * time.Second
	SEND_CHANNEL_SIZE = 64
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Event     string         `json:"event,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type authPayload struct {
	Token string `json:"token"`
}

type Client struct {
	ID         string
	UserID     uuid.UUID
	Connection *websocket.Conn
	send       chan Message
}

type Manager struct {
	hub      *Hub
	session  *services.SessionService
	userRepo repositories.UserRepository
	eventBus *events.EventBus
	log      logger.Logger
}

func New(
	eventBus *events.EventBus,
	session *services.SessionService,
	repos repositories.Repository,
) (*Manager, error) {
	log := logger.New("websockets")

	manager := &Manager{
		hub:      newHub(),
		session:  session,
		userRepo: repos.User,
		eventBus: eventBus,
		log:      log,
	}

	go manager.hub.run(manager)

	if err := eventBus.Subscribe(events.ASSIGNMENT_CHANNEL, manager.handleAssignmentEvent); err != nil {
		return nil, log.Err("failed to subscribe live feed to assignment events", err)
	}

	log.Function("New").Info("Live feed hub started")
	return manager, nil
}

// handleAssignmentEvent fans one bus event out to every connected client
func (m *Manager) handleAssignmentEvent(event events.Event) error {
	data := make(map[string]any, len(event.Data)+1)
	for k, v := range event.Data {
		data[k] = v
	}
	if event.AssignmentID != nil {
		data["assignmentId"] = event.AssignmentID.String()
	}

	m.hub.broadcast <- Message{
		ID:        event.ID,
		Type:      MESSAGE_TYPE_EVENT,
		Event:     string(event.Type),
		Data:      data,
		Timestamp: event.Timestamp,
	}

	return nil
}

// HandleWebSocket owns one connection for its lifetime. The first client
// message must carry a valid back-office session token; everything after
// that is server push only.
func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	log := m.log.Function("HandleWebSocket")

	client, err := m.authenticate(c)
	if err != nil {
		log.Info("live feed connection rejected", "error", err.Error())
		_ = c.WriteJSON(Message{
			ID:        uuid.New().String(),
			Type:      MESSAGE_TYPE_AUTH_FAILURE,
			Timestamp: time.Now(),
		})
		_ = c.Close()
		return
	}

	m.hub.register <- client
	log.Info("live feed client connected", "clientID", client.ID, "userID", client.UserID)

	defer func() {
		m.hub.unregister <- client
		_ = c.Close()
	}()

	go client.writePump(log)

	// Drain reads so close frames and pings are processed; client
	// payloads after auth are ignored
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Manager) authenticate(c *websocket.Conn) (*Client, error) {
	if err := c.WriteJSON(Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_AUTH_REQUEST,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, err
	}

	if err := c.SetReadDeadline(time.Now().Add(AUTH_READ_TIMEOUT)); err != nil {
		return nil, err
	}

	var payload authPayload
	if err := c.ReadJSON(&payload); err != nil {
		return nil, err
	}

	userID, _, err := m.session.Validate(contextForConn(), payload.Token)
	if err != nil {
		return nil, err
	}

	user, err := m.userRepo.GetByID(contextForConn(), userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive || !user.Role.IsBackOffice() {
		return nil, errNotBackOffice
	}

	if err := c.SetReadDeadline(time.Time{}); err != nil {
		return nil, err
	}

	if err := c.WriteJSON(Message{
		ID:        uuid.New().String(),
		Type:      MESSAGE_TYPE_AUTH_SUCCESS,
		Timestamp: time.Now(),
	}); err != nil {
		return nil, err
	}

	return &Client{
		ID:         uuid.New().String(),
		UserID:     user.ID,
		Connection: c,
		send:       make(chan Message, SEND_CHANNEL_SIZE),
	}, nil
}

func (c *Client) writePump(log logger.Logger) {
	for message := range c.send {
		if err := c.Connection.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT)); err != nil {
			log.Warn("failed to set write deadline", "clientID", c.ID, "error", err)
			return
		}
		if err := c.Connection.WriteJSON(message); err != nil {
			log.Warn("failed to push message, dropping client", "clientID", c.ID, "error", err)
			return
		}
	}
}
