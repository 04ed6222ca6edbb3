package services

import (
	"sync"
)

// DocKey identifies a document in the directory. A structured key keeps
// creator and name apart, so "ab"+"c" and "a"+"bc" can never collide.
type DocKey struct {
	Creator string
	Name    string
}

// DocumentDirectory is the process-wide registry of documents. Entries
// are never removed or replaced; mutation happens on the Document
// itself under its own lock.
type DocumentDirectory struct {
	docs sync.Map // DocKey -> *Document
}

// NewDocumentDirectory creates an empty directory.
func NewDocumentDirectory() *DocumentDirectory {
	return &DocumentDirectory{}
}

// Contains reports whether a document is registered under the key.
func (dd *DocumentDirectory) Contains(key DocKey) bool {
	_, ok := dd.docs.Load(key)
	return ok
}

// Put inserts the document under its (creator, name) key. It returns
// false when the key is already taken, which catches duplicate creation
// races that slipped past the pre-existence check.
func (dd *DocumentDirectory) Put(doc *Document) bool {
	key := DocKey{Creator: doc.Creator().Username, Name: doc.Name()}
	_, loaded := dd.docs.LoadOrStore(key, doc)
	return !loaded
}

// GetAsGuest returns the document when the user is its creator or an
// invited guest.
func (dd *DocumentDirectory) GetAsGuest(user *User, key DocKey) (*Document, error) {
	doc, err := dd.get(key)
	if err != nil {
		return nil, err
	}
	if !doc.IsEditableBy(user) {
		return nil, ErrNotAllowed
	}
	return doc, nil
}

// GetAsCreator returns the document only for its creator. Sharing is a
// creator-only privilege, so the invite path goes through here.
func (dd *DocumentDirectory) GetAsCreator(user *User, key DocKey) (*Document, error) {
	doc, err := dd.get(key)
	if err != nil {
		return nil, err
	}
	if doc.Creator() != user {
		return nil, ErrNotAllowed
	}
	return doc, nil
}

func (dd *DocumentDirectory) get(key DocKey) (*Document, error) {
	v, ok := dd.docs.Load(key)
	if !ok {
		return nil, ErrNotFound
	}
	return v.(*Document), nil
}
