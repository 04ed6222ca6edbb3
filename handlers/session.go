package handlers

import (
	"errors"
	"fmt"
	"io/fs"
	"log"

	"Turing/internal"
	"Turing/models"
	"Turing/services"
)

// Conn is one client connection as seen by the session: decoded
// requests in, replies out. The websocket adapter lives in ws.go; tests
// use scripted fakes.
type Conn interface {
	ReadRequest() (*models.Request, error)
	WriteReply(*models.Reply) error
}

// Session states
type State int

const (
	StateLoggedOut State = iota
	StateLoggedIn
	StateEditing
)

// Deps are the shared services a session dispatches into. One set is
// built at startup and handed to every session.
type Deps struct {
	Users         *services.UserDirectory
	Docs          *services.DocumentDirectory
	Notifications *services.NotificationService
	Store         internal.ContentStore
	Pool          *services.AddressPool
	DB            *services.DatabaseService
}

// Session serves one client connection. Requests are processed strictly
// sequentially: read, dispatch, reply, repeat until disconnect.
type Session struct {
	conn        Conn
	deps        Deps
	state       State
	currentUser *services.User
}

// NewSession creates a session for an accepted connection.
func NewSession(conn Conn, deps Deps) *Session {
	return &Session{conn: conn, deps: deps}
}

// Run is the session loop. It returns when the connection closes or
// fails, after the implicit-logout cleanup.
func (s *Session) Run() {
	for {
		req, err := s.conn.ReadRequest()
		if err != nil {
			s.disconnect()
			return
		}

		var reply *models.Reply
		if !validRequest(req) {
			reply = models.Error("Bad request format")
		} else {
			reply = s.dispatch(req)
		}

		if err := s.conn.WriteReply(reply); err != nil {
			s.disconnect()
			return
		}
	}
}

// validRequest checks that the request carries the fields its operation
// needs, before any dispatch.
func validRequest(req *models.Request) bool {
	switch req.Op {
	case models.OpLogin:
		return req.Username != "" && req.Password != ""
	case models.OpCreateDoc:
		return req.DocName != "" && req.Sections != 0
	case models.OpShowDoc:
		return req.DocName != "" && req.Creator != ""
	case models.OpShowSec, models.OpEditSec:
		return req.DocName != "" && req.Creator != "" && req.Section != nil
	case models.OpInvite:
		return req.Username != "" && req.DocName != "" && req.Creator != ""
	case models.OpChatMsg:
		return req.Message != ""
	case models.OpLogout, models.OpEndEdit, models.OpList:
		return true
	default:
		return false
	}
}

// dispatch rejects operations that are illegal in the current state and
// routes the rest to their handlers.
func (s *Session) dispatch(req *models.Request) *models.Reply {
	switch s.state {
	case StateLoggedOut:
		switch req.Op {
		case models.OpLogin:
			return s.login(req)
		case models.OpLogout:
			return models.Ack() // idempotent
		default:
			return models.Error("You must be logged in to request this operation")
		}

	case StateLoggedIn:
		switch req.Op {
		case models.OpLogout:
			return s.logout()
		case models.OpCreateDoc:
			return s.createDocument(req)
		case models.OpShowDoc:
			return s.showDocument(req)
		case models.OpShowSec:
			return s.showSection(req)
		case models.OpEditSec:
			return s.editSection(req)
		case models.OpInvite:
			return s.invite(req)
		case models.OpList:
			return s.list()
		case models.OpLogin:
			return models.Error("You are already logged in")
		case models.OpEndEdit, models.OpChatMsg:
			return models.Error("You're not editing any section")
		}

	case StateEditing:
		switch req.Op {
		case models.OpEndEdit:
			return s.endEdit(req)
		case models.OpChatMsg:
			return s.chatMessage(req)
		case models.OpEditSec:
			return models.Error("You're already editing a section")
		default:
			return models.Error("End the section editing first")
		}
	}
	return models.Error("Unknown operation: " + req.Op)
}

func (s *Session) login(req *models.Request) *models.Reply {
	user, err := s.deps.Users.LogIn(req.Username, req.Password)
	switch {
	case err == services.ErrUnknownUser:
		return models.Error("Inexistent user: " + req.Username)
	case err == services.ErrAlreadyLogged:
		return models.Error(req.Username + " is already logged in")
	case err != nil:
		return models.Error(err.Error())
	case user == nil: // wrong password, a normal rejection
		log.Printf("Wrong password for %s", req.Username)
		return models.Error("Wrong password for " + req.Username)
	}

	s.currentUser = user
	s.state = StateLoggedIn
	log.Printf("%s connected", user.Username)
	return models.Ack()
}

func (s *Session) logout() *models.Reply {
	s.releaseUser()
	log.Println("User logged out")
	return models.Ack()
}

func (s *Session) createDocument(req *models.Request) *models.Reply {
	key := services.DocKey{Creator: s.currentUser.Username, Name: req.DocName}
	if s.deps.Docs.Contains(key) {
		return models.Error("Pre-existent document: " + req.DocName)
	}

	doc, err := services.NewDocument(req.DocName, s.currentUser, req.Sections, s.deps.Store, s.deps.Pool)
	switch {
	case err == services.ErrSectionCount:
		return models.Error(fmt.Sprintf("Invalid section count: %d", req.Sections))
	case err == services.ErrInvalidInput:
		return models.Error("Invalid document name: " + req.DocName)
	case errors.Is(err, fs.ErrExist): // lost a creation race to another session
		return models.Error("Pre-existent document: " + req.DocName)
	case err != nil:
		log.Printf("Document creation failed for %s: %v", s.currentUser.Username, err)
		return models.Error("Storage error")
	}

	if !s.deps.Docs.Put(doc) { // lost a creation race
		return models.Error("Pre-existent document: " + req.DocName)
	}
	s.currentUser.AddOwnedDocument(doc)
	s.deps.DB.RecordDocument(s.currentUser.Username, req.DocName, req.Sections)
	log.Printf("%s created document %s with %d sections", s.currentUser.Username, req.DocName, req.Sections)
	return models.Ack()
}

func (s *Session) showDocument(req *models.Request) *models.Reply {
	doc, reply := s.getDocument(req.DocName, req.Creator)
	if reply != nil {
		return reply
	}

	var content string
	for i := 0; i < doc.NumberOfSections(); i++ {
		part, err := doc.Section(i).Content()
		if err != nil {
			log.Printf("Read failed on %s section %d: %v", doc.Name(), i, err)
			return models.Error("Storage error")
		}
		content += part
	}
	return &models.Reply{Status: models.StatusOK, Content: content}
}

func (s *Session) showSection(req *models.Request) *models.Reply {
	doc, reply := s.getDocument(req.DocName, req.Creator)
	if reply != nil {
		return reply
	}

	section := doc.Section(*req.Section)
	if section == nil {
		return models.Error(fmt.Sprintf("Inexistent section: %d", *req.Section))
	}
	content, err := section.Content()
	if err != nil {
		log.Printf("Read failed on %s section %d: %v", doc.Name(), *req.Section, err)
		return models.Error("Storage error")
	}
	return &models.Reply{Status: models.StatusOK, Content: content}
}

func (s *Session) editSection(req *models.Request) *models.Reply {
	doc, reply := s.getDocument(req.DocName, req.Creator)
	if reply != nil {
		return reply
	}

	section := doc.Section(*req.Section)
	if section == nil {
		return models.Error(fmt.Sprintf("Inexistent section: %d", *req.Section))
	}

	if !section.StartEdit(s.currentUser) {
		if holder := section.EditingUser(); holder != nil {
			return models.Error(holder.Username + " is editing this section")
		}
		return models.Error("Section is locked")
	}
	s.currentUser.SetEditingSection(section)

	content, err := section.Content()
	if err != nil {
		// give the lock back rather than hold it behind a failed reply
		section.EndEdit(s.currentUser, nil)
		s.currentUser.SetEditingSection(nil)
		log.Printf("Read failed on %s section %d: %v", doc.Name(), *req.Section, err)
		return models.Error("Storage error")
	}

	s.state = StateEditing
	log.Printf("%s is editing %s section %d", s.currentUser.Username, doc.Name(), *req.Section)
	return &models.Reply{
		Status:   models.StatusOK,
		Content:  content,
		ChatAddr: doc.ChatAddress(),
	}
}

func (s *Session) endEdit(req *models.Request) *models.Reply {
	section := s.currentUser.EditingSection()
	if section == nil {
		s.state = StateLoggedIn
		return models.Error("You're not editing any section")
	}

	err := section.EndEdit(s.currentUser, req.Content)
	s.currentUser.SetEditingSection(nil)
	s.state = StateLoggedIn
	if err != nil {
		log.Printf("Write failed on %s: %v", section.Parent().Name(), err)
		return models.Error("Storage error")
	}
	return models.Ack()
}

func (s *Session) invite(req *models.Request) *models.Reply {
	key := services.DocKey{Creator: req.Creator, Name: req.DocName}
	doc, err := s.deps.Docs.GetAsCreator(s.currentUser, key)
	switch {
	case err == services.ErrNotFound:
		return models.Error("Inexistent document: " + req.DocName)
	case err == services.ErrNotAllowed:
		log.Printf("%s not allowed to share %s", s.currentUser.Username, req.DocName)
		return models.Error("You cannot share other users' documents")
	}

	target := s.deps.Users.Get(req.Username)
	if target == nil {
		return models.Error("Inexistent user: " + req.Username)
	}
	if target == s.currentUser {
		return models.Error("You cannot invite yourself")
	}

	if !doc.ShareWith(target) {
		return models.Error(req.DocName + " already shared with " + req.Username)
	}
	target.AddSharedDocument(doc)
	s.deps.DB.RecordPermission(req.Creator, req.DocName, req.Username)

	if err := s.deps.Notifications.NotifyInvite(target, doc); err != nil {
		log.Printf("Notification for %s failed: %v", req.Username, err)
	}
	return models.Ack()
}

func (s *Session) list() *models.Reply {
	owned, shared := s.currentUser.Documents()

	docs := make([]models.DocumentInfo, 0, len(owned)+len(shared))
	for _, doc := range owned {
		docs = append(docs, models.DocumentInfo{
			Name:     doc.Name(),
			Creator:  doc.Creator().Username,
			Sections: doc.NumberOfSections(),
			Shared:   doc.IsShared(),
		})
	}
	for _, doc := range shared {
		docs = append(docs, models.DocumentInfo{
			Name:     doc.Name(),
			Creator:  doc.Creator().Username,
			Sections: doc.NumberOfSections(),
			Shared:   true,
		})
	}
	return &models.Reply{Status: models.StatusOK, Docs: docs}
}

func (s *Session) chatMessage(req *models.Request) *models.Reply {
	section := s.currentUser.EditingSection()
	if section == nil {
		return models.Error("You have to edit a section before using the chat")
	}
	if !section.Parent().SendChatMessage(req.Message, s.currentUser.Username) {
		return models.Error("Cannot send message")
	}
	return models.Ack()
}

// getDocument resolves a document for reading or editing, translating
// directory errors to client replies. A nil reply means success.
func (s *Session) getDocument(name, creator string) (*services.Document, *models.Reply) {
	key := services.DocKey{Creator: creator, Name: name}
	doc, err := s.deps.Docs.GetAsGuest(s.currentUser, key)
	switch {
	case err == services.ErrNotFound:
		return nil, models.Error("Inexistent document: " + name)
	case err == services.ErrNotAllowed:
		log.Printf("%s not allowed to get %s", s.currentUser.Username, name)
		return nil, models.Error("Permission denied")
	}
	return doc, nil
}

// disconnect handles end-of-stream as an implicit logout: any held
// section lock is released with the edit discarded, then the user goes
// offline.
func (s *Session) disconnect() {
	if s.currentUser != nil {
		log.Printf("%s disconnected", s.currentUser.Username)
	} else {
		log.Println("Client disconnected")
	}
	s.releaseUser()
}

// releaseUser undoes all per-user session state: edit lock, notifier,
// online flag.
func (s *Session) releaseUser() {
	user := s.currentUser
	if user == nil {
		return
	}
	if section := user.EditingSection(); section != nil {
		if err := section.EndEdit(user, nil); err != nil {
			log.Printf("Error releasing section lock for %s: %v", user.Username, err)
		}
		user.SetEditingSection(nil)
	}
	user.ClearNotifier()
	user.SetOnline(false)
	s.currentUser = nil
	s.state = StateLoggedOut
}
