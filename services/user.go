package services

import (
	"log"
	"sync"
)

// Notifier is a live outbound notification channel toward a client.
// The websocket implementation lives in the handlers package; tests use
// in-memory ones.
type Notifier interface {
	Deliver(payload []byte) error
}

// outboxSize bounds the per-user delivery queue. When it overflows the
// payload falls back to the pending queue, which the delivery loop
// drains back into the outbox as slots free up.
const outboxSize = 64

// User is a registered identity. It lives for the whole process
// lifetime and is owned by the UserDirectory; sessions and documents
// only hold references to it.
type User struct {
	Username string
	password string

	mu             sync.Mutex
	online         bool
	ownedDocs      []*Document
	sharedDocs     []*Document
	editingSection *Section

	notifier Notifier
	pending  [][]byte    // notifications queued while no notifier is registered
	outbox   chan []byte // drained by one goroutine per registered notifier
}

// NewUser creates an offline user with the given credentials.
func NewUser(username, password string) *User {
	return &User{Username: username, password: password}
}

// CheckPassword reports whether the given credential matches.
func (u *User) CheckPassword(password string) bool {
	return u.password == password
}

// SetOnline flips the online flag. It returns false when the flag
// already had the requested value, which makes the login check-and-set
// race free across simultaneous attempts.
func (u *User) SetOnline(status bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.online == status {
		return false
	}
	u.online = status
	return true
}

// IsOnline reports whether the user is currently logged in.
func (u *User) IsOnline() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.online
}

// AddOwnedDocument appends a document the user created.
func (u *User) AddOwnedDocument(doc *Document) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ownedDocs = append(u.ownedDocs, doc)
}

// AddSharedDocument records a document the user was invited to. Adding
// the same document twice keeps a single entry.
func (u *User) AddSharedDocument(doc *Document) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, d := range u.sharedDocs {
		if d == doc {
			return
		}
	}
	u.sharedDocs = append(u.sharedDocs, doc)
}

// Documents returns the owned and shared document lists.
func (u *User) Documents() (owned, shared []*Document) {
	u.mu.Lock()
	defer u.mu.Unlock()
	owned = append(owned, u.ownedDocs...)
	shared = append(shared, u.sharedDocs...)
	return owned, shared
}

// EditingSection returns the section the user holds the edit lock on,
// or nil.
func (u *User) EditingSection() *Section {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.editingSection
}

// SetEditingSection records which section the user is editing.
func (u *User) SetEditingSection(s *Section) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.editingSection = s
}

// SetNotifier installs a live notification channel and flushes the
// pending queue to it in FIFO order. Installation and flush are atomic
// with respect to concurrent SendNotification calls, so no notification
// is both queued and delivered.
func (u *User) SetNotifier(n Notifier) {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.stopOutboxLocked()
	u.notifier = n
	if n == nil {
		return
	}

	u.outbox = make(chan []byte, outboxSize)
	go u.deliverLoop(n, u.outbox)
	queued := u.pending
	u.pending = nil
	for _, payload := range queued {
		u.enqueueLocked(payload)
	}
}

// ClearNotifier drops the notification channel. Queued but undelivered
// payloads stay in the outbox and are drained before the delivery
// goroutine exits.
func (u *User) ClearNotifier() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.stopOutboxLocked()
	u.notifier = nil
}

// ClearNotifierIf drops the notification channel only when n is still
// the installed one. A dead connection's cleanup runs through here so
// it cannot tear down a newer registration by the same user.
func (u *User) ClearNotifierIf(n Notifier) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.notifier != n {
		return
	}
	u.stopOutboxLocked()
	u.notifier = nil
}

// SendNotification delivers the payload on the registered channel or
// queues it for later when none is registered. Delivery happens on the
// user's delivery goroutine, so a slow notifier never stalls the
// caller.
func (u *User) SendNotification(payload []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.notifier == nil {
		u.pending = append(u.pending, payload)
		return
	}
	u.enqueueLocked(payload)
}

// enqueueLocked pushes a payload to the outbox, falling back to the
// pending queue when the outbox is full. While earlier payloads sit in
// the pending queue, later ones must join it too, or they would reach
// the outbox out of order. Callers hold u.mu.
func (u *User) enqueueLocked(payload []byte) {
	if len(u.pending) == 0 {
		select {
		case u.outbox <- payload:
			return
		default:
			log.Printf("Notification outbox full for %s, queueing", u.Username)
		}
	}
	u.pending = append(u.pending, payload)
}

// stopOutboxLocked closes the current outbox so its delivery goroutine
// drains and exits. Callers hold u.mu.
func (u *User) stopOutboxLocked() {
	if u.outbox != nil {
		close(u.outbox)
		u.outbox = nil
	}
}

// deliverLoop forwards queued payloads to the notifier one at a time,
// preserving send order. Each delivery frees an outbox slot, so the
// loop tops the outbox up from the pending queue as it goes.
func (u *User) deliverLoop(n Notifier, outbox chan []byte) {
	for payload := range outbox {
		if err := n.Deliver(payload); err != nil {
			log.Printf("Failed to deliver notification to %s: %v", u.Username, err)
		}
		u.refill(outbox)
	}
}

// refill moves pending payloads into the outbox while there is room.
// A no-op when a newer registration has replaced the outbox.
func (u *User) refill(outbox chan []byte) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.outbox != outbox {
		return
	}
	for len(u.pending) > 0 {
		select {
		case outbox <- u.pending[0]:
			u.pending = u.pending[1:]
		default:
			return
		}
	}
}
