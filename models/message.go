package models

// Operation names carried in the "op" field of a request
const (
	OpLogin     = "login"
	OpLogout    = "logout"
	OpCreateDoc = "create-document"
	OpShowDoc   = "show-document"
	OpShowSec   = "show-section"
	OpEditSec   = "edit-section"
	OpEndEdit   = "end-edit"
	OpInvite    = "invite"
	OpList      = "list"
	OpChatMsg   = "chat-message"
)

// Reply status values
const (
	StatusOK  = "ok"
	StatusErr = "err"
)

// Request is one decoded client request. Which fields are required
// depends on Op; the handlers package checks that before dispatch.
type Request struct {
	Op       string  `json:"op"`
	Username string  `json:"username,omitempty"`
	Password string  `json:"password,omitempty"`
	DocName  string  `json:"docName,omitempty"`
	Creator  string  `json:"docCreator,omitempty"`
	Section  *int    `json:"section,omitempty"`  // section index, 0-based
	Sections int     `json:"sections,omitempty"` // section count for create-document
	Content  *string `json:"content,omitempty"`  // nil on end-edit discards the edit
	Message  string  `json:"message,omitempty"`  // chat text
}

// Reply is the single response written for a request.
type Reply struct {
	Status   string         `json:"status"`
	Error    string         `json:"error,omitempty"`
	Content  string         `json:"content,omitempty"`
	ChatAddr string         `json:"chatAddr,omitempty"`
	Docs     []DocumentInfo `json:"docs,omitempty"`
}

// Ack returns a bare ok reply.
func Ack() *Reply {
	return &Reply{Status: StatusOK}
}

// Error returns an err reply with the given message.
func Error(msg string) *Reply {
	return &Reply{Status: StatusErr, Error: msg}
}
