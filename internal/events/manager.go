package events

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// ActiveUser is one entry in the active-users snapshot.
type ActiveUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Manager is the single source of truth for which users are connected and
// the only component that fans events out to them. Structural changes to
// the client map are serialized through the Run loop; lookups and snapshots
// take the read lock.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client // user ID -> live client

	register   chan *Client
	unregister chan *Client

	log *zap.Logger
}

// NewManager creates an empty manager. Call Run in its own goroutine before
// registering clients.
func NewManager(log *zap.Logger) *Manager {
	return &Manager{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run consumes registration and unregistration requests for the life of the
// process.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.registerClient(client)
		case client := <-m.unregister:
			m.unregisterClient(client)
		}
	}
}

// RegisterClient queues a client for registration.
func (m *Manager) RegisterClient(client *Client) {
	client.setManager(m)
	m.register <- client
}

// UnregisterClient queues a client for unregistration. Safe to call more
// than once and from multiple goroutines; extra calls are no-ops.
func (m *Manager) UnregisterClient(client *Client) {
	m.unregister <- client
}

// registerClient inserts the client into the live set. If the same user is
// already connected the new connection wins: a refreshed browser tab
// re-registers before the old socket has died, so the stale entry's queue
// is closed and replaced rather than rejected.
func (m *Manager) registerClient(client *Client) {
	m.mu.Lock()
	if old, ok := m.clients[client.ID]; ok && old != client {
		close(old.send)
	}
	m.clients[client.ID] = client
	total := len(m.clients)
	m.mu.Unlock()

	m.log.Info("client connected",
		zap.String("user_id", client.ID),
		zap.String("name", client.Name),
		zap.Int("active", total))

	// Welcome frame so the new client sees itself immediately. Best effort:
	// if its queue is somehow already full the welcome is dropped rather
	// than blocking registration.
	if welcome, err := json.Marshal(NewUserJoinedEvent(client.ID, client.Name, client.Email)); err == nil {
		select {
		case client.send <- welcome:
		default:
			m.log.Warn("welcome dropped, queue full", zap.String("user_id", client.ID))
		}
	}

	m.BroadcastEvent(NewUserJoinedEvent(client.ID, client.Name, client.Email))
}

// unregisterClient removes the client and closes its queue, then announces
// the departure to everyone still connected. Only the exact client that is
// live for the ID is removed: a stale connection superseded by a reconnect
// must not take the fresh one down with it, and a second unregister of the
// same client must not emit a second departure.
func (m *Manager) unregisterClient(client *Client) {
	m.mu.Lock()
	current, ok := m.clients[client.ID]
	if !ok || current != client {
		m.mu.Unlock()
		return
	}
	delete(m.clients, client.ID)
	close(client.send)
	total := len(m.clients)
	m.mu.Unlock()

	m.log.Info("client disconnected",
		zap.String("user_id", client.ID),
		zap.String("name", client.Name),
		zap.Int("active", total))

	m.BroadcastEvent(NewUserLeftEvent(client.ID, client.Name, client.Email))
}

// GetActiveUsers returns a snapshot of everyone currently connected.
func (m *Manager) GetActiveUsers() []ActiveUser {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]ActiveUser, 0, len(m.clients))
	for _, client := range m.clients {
		users = append(users, ActiveUser{ID: client.ID, Name: client.Name, Email: client.Email})
	}
	return users
}

// SendEventToUser delivers an event to one user. Returns false when the
// user is not connected, which callers should treat as routine. A full
// queue means the receiver cannot keep up: the delivery is dropped and the
// connection is evicted so it cannot stall senders.
//
// The enqueue happens under the read lock. Queues are only ever closed
// under the write lock, so a held read lock is what keeps this send from
// racing a close.
func (m *Manager) SendEventToUser(userID string, event *Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		m.log.Error("marshal event failed", zap.Error(err))
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	client, ok := m.clients[userID]
	if !ok {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		m.log.Warn("send queue full, evicting client", zap.String("user_id", userID))
		go m.UnregisterClient(client)
		return false
	}
}

// BroadcastEvent delivers an event to every connected client. Slow
// consumers are evicted per recipient; one full queue never blocks or
// skips delivery to the others. Eviction happens on a goroutine because
// the unregister path needs the write lock held off until the read lock
// here is released.
func (m *Manager) BroadcastEvent(event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		m.log.Error("marshal event failed", zap.Error(err))
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.send <- payload:
		default:
			m.log.Warn("send queue full, evicting client", zap.String("user_id", client.ID))
			go m.UnregisterClient(client)
		}
	}
}
