package services

import (
	"log"
	"net"
	"strings"
	"sync"

	"Turing/internal"
)

// Document is an ordered, fixed-size array of sections owned by its
// creator. Guests gain access through invites. A chat group channel is
// open exactly while at least one user is editing some section.
type Document struct {
	name     string
	creator  *User
	sections []*Section
	store    internal.ContentStore
	pool     *AddressPool

	mu           sync.Mutex // guards allowed, editingUsers and the chat state
	allowed      map[string]*User
	editingUsers int
	chatAddr     net.IP
	channel      *GroupChannel
}

// NewDocument creates a document with the given number of empty
// sections and materializes them in the content store. The (creator,
// name) pair must not already exist in the directory; publication to
// the directory is the caller's job.
func NewDocument(name string, creator *User, sections int, store internal.ContentStore, pool *AddressPool) (*Document, error) {
	if sections < 1 || sections > internal.MaxSections {
		return nil, ErrSectionCount
	}
	if strings.ContainsAny(name, "/\\") {
		return nil, ErrInvalidInput
	}

	if err := store.CreateDocument(creator.Username, name, sections); err != nil {
		return nil, err
	}

	doc := &Document{
		name:    name,
		creator: creator,
		store:   store,
		pool:    pool,
		allowed: make(map[string]*User),
	}
	doc.sections = make([]*Section, sections)
	for i := range doc.sections {
		doc.sections[i] = &Section{parent: doc, index: i}
	}
	return doc, nil
}

// Name returns the document name.
func (d *Document) Name() string {
	return d.name
}

// Creator returns the owning user.
func (d *Document) Creator() *User {
	return d.creator
}

// NumberOfSections returns the fixed section count.
func (d *Document) NumberOfSections() int {
	return len(d.sections)
}

// Section returns the section at the given index, or nil when the index
// is out of range.
func (d *Document) Section(index int) *Section {
	if index < 0 || index >= len(d.sections) {
		return nil
	}
	return d.sections[index]
}

// IsEditableBy reports whether the user is the creator or an invited
// guest.
func (d *Document) IsEditableBy(user *User) bool {
	if user == d.creator {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.allowed[user.Username]
	return ok
}

// ShareWith grants guest access to the user. It returns false when the
// user already had access or is the creator, so duplicate invites stay
// idempotent.
func (d *Document) ShareWith(user *User) bool {
	if user == d.creator {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.allowed[user.Username]; ok {
		return false
	}
	d.allowed[user.Username] = user
	return true
}

// IsShared reports whether at least one guest has access.
func (d *Document) IsShared() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.allowed) > 0
}

// ChatAddress returns the chat group address as a string, or "" when no
// chat channel is open (nobody editing, or the pool was exhausted).
func (d *Document) ChatAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.chatAddr == nil {
		return ""
	}
	return d.chatAddr.String()
}

// SendChatMessage transmits "<user>: <text>" on the group channel. It
// returns false on transmission failure or when no channel is open.
func (d *Document) SendChatMessage(text, fromUsername string) bool {
	d.mu.Lock()
	channel := d.channel
	d.mu.Unlock()

	if channel == nil {
		return false
	}
	if err := channel.Send(text, fromUsername); err != nil {
		log.Printf("Chat transmission failed on %s: %v", d.name, err)
		return false
	}
	return true
}

// addEditingUser is called by Section.StartEdit under the section lock.
// The first editor opens the chat channel; pool exhaustion degrades to
// editing without chat instead of failing the edit.
func (d *Document) addEditingUser() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.editingUsers++
	if d.editingUsers != 1 {
		return
	}

	addr, err := d.pool.Allocate()
	if err != nil {
		log.Printf("No free chat address for %s, editing without chat", d.name)
		return
	}
	d.chatAddr = addr
	d.channel = NewGroupChannel(addr)
}

// removeEditingUser is called by Section.EndEdit under the section
// lock. The last editor leaving closes the channel and frees the
// address.
func (d *Document) removeEditingUser() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.editingUsers--
	if d.editingUsers > 0 || d.chatAddr == nil {
		return
	}

	if err := d.channel.Close(); err != nil {
		log.Printf("Error closing chat channel for %s: %v", d.name, err)
	}
	d.pool.Free(d.chatAddr)
	d.chatAddr = nil
	d.channel = nil
}

// Section is the smallest lockable, editable unit of a document. The
// lock serializes write intent only; reads are never blocked by it.
type Section struct {
	parent *Document
	index  int

	mu          sync.Mutex // guards editingUser
	editingUser *User

	ioMu sync.Mutex // serializes content store access
}

// Parent returns the owning document.
func (s *Section) Parent() *Document {
	return s.parent
}

// Index returns the position of the section inside its document.
func (s *Section) Index() int {
	return s.index
}

// EditingUser returns the current lock holder, or nil.
func (s *Section) EditingUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingUser
}

// StartEdit try-locks the section for the user. It never blocks: a
// section already locked by someone else reports false with no side
// effects.
func (s *Section) StartEdit(user *User) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editingUser != nil {
		return false
	}
	s.editingUser = user
	s.parent.addEditingUser()
	return true
}

// EndEdit unlocks the section and persists the new content, or discards
// the edit when content is nil. Calls by a user that does not hold the
// lock are no-ops, which covers the disconnect race. The lock is
// released even when the write fails.
func (s *Section) EndEdit(user *User, content *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editingUser != user {
		return nil
	}

	var err error
	if content != nil {
		s.ioMu.Lock()
		err = s.parent.store.Write(s.parent.creator.Username, s.parent.name, s.index, *content)
		s.ioMu.Unlock()
	}

	s.editingUser = nil
	s.parent.removeEditingUser()
	return err
}

// Content reads the persisted section content. Safe to call while the
// section is locked by another user.
func (s *Section) Content() (string, error) {
	s.ioMu.Lock()
	defer s.ioMu.Unlock()
	return s.parent.store.Read(s.parent.creator.Username, s.parent.name, s.index)
}
