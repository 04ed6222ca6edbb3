package services

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Turing/internal"
)

func newTestStore(t *testing.T) internal.ContentStore {
	t.Helper()
	store, err := internal.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func newTestDocument(t *testing.T, creator *User, sections int) (*Document, *AddressPool) {
	t.Helper()
	pool := NewAddressPool()
	doc, err := NewDocument("doc1", creator, sections, newTestStore(t), pool)
	require.NoError(t, err)
	return doc, pool
}

func TestNewDocumentValidation(t *testing.T) {
	alice := NewUser("alice", "pw")
	store := newTestStore(t)
	pool := NewAddressPool()

	_, err := NewDocument("doc1", alice, 0, store, pool)
	assert.ErrorIs(t, err, ErrSectionCount)

	_, err = NewDocument("doc1", alice, internal.MaxSections+1, store, pool)
	assert.ErrorIs(t, err, ErrSectionCount)

	_, err = NewDocument("a/b", alice, 1, store, pool)
	assert.ErrorIs(t, err, ErrInvalidInput)

	doc, err := NewDocument("doc1", alice, internal.MaxSections, store, pool)
	require.NoError(t, err)
	assert.Equal(t, internal.MaxSections, doc.NumberOfSections())
}

func TestSectionIndexBounds(t *testing.T) {
	alice := NewUser("alice", "pw")
	doc, _ := newTestDocument(t, alice, 2)

	assert.NotNil(t, doc.Section(0))
	assert.NotNil(t, doc.Section(1))
	assert.Nil(t, doc.Section(2))
	assert.Nil(t, doc.Section(-1))
}

func TestStartEditMutualExclusion(t *testing.T) {
	alice := NewUser("alice", "pw")
	doc, _ := newTestDocument(t, alice, 1)
	section := doc.Section(0)

	var wg sync.WaitGroup
	var successes int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if section.StartEdit(NewUser("u", "pw")) {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes, "at most one editor per section")
}

func TestStartEditIndependentSections(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	doc, _ := newTestDocument(t, alice, 2)

	assert.True(t, doc.Section(0).StartEdit(bob))
	assert.False(t, doc.Section(0).StartEdit(alice))
	assert.True(t, doc.Section(1).StartEdit(alice), "other sections lock independently")
}

func TestEndEditByNonHolderIsNoop(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	doc, _ := newTestDocument(t, alice, 1)
	section := doc.Section(0)

	require.True(t, section.StartEdit(alice))

	content := "stolen"
	require.NoError(t, section.EndEdit(bob, &content))
	assert.Equal(t, alice, section.EditingUser(), "lock stays with the holder")

	got, err := section.Content()
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestEndEditRoundTrip(t *testing.T) {
	alice := NewUser("alice", "pw")
	doc, _ := newTestDocument(t, alice, 1)
	section := doc.Section(0)

	require.True(t, section.StartEdit(alice))
	content := "hello world"
	require.NoError(t, section.EndEdit(alice, &content))

	got, err := section.Content()
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)

	// a discarded edit leaves prior content unchanged
	require.True(t, section.StartEdit(alice))
	require.NoError(t, section.EndEdit(alice, nil))

	got, err = section.Content()
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}

func TestChatChannelLifecycle(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	doc, pool := newTestDocument(t, alice, 2)

	assert.Equal(t, "", doc.ChatAddress(), "no chat while nobody edits")

	require.True(t, doc.Section(0).StartEdit(alice))
	addr := doc.ChatAddress()
	assert.NotEqual(t, "", addr, "first editor opens the chat channel")
	assert.Equal(t, 1, pool.Held())

	require.True(t, doc.Section(1).StartEdit(bob))
	assert.Equal(t, addr, doc.ChatAddress(), "one channel per document")
	assert.Equal(t, 1, pool.Held())

	require.NoError(t, doc.Section(0).EndEdit(alice, nil))
	assert.Equal(t, addr, doc.ChatAddress(), "channel stays while editors remain")

	require.NoError(t, doc.Section(1).EndEdit(bob, nil))
	assert.Equal(t, "", doc.ChatAddress(), "last editor closes the channel")
	assert.Equal(t, 0, pool.Held(), "address returns to the pool")
}

func TestChatAddressesDisjointAcrossDocuments(t *testing.T) {
	alice := NewUser("alice", "pw")
	store := newTestStore(t)
	pool := NewAddressPool()

	doc1, err := NewDocument("doc1", alice, 1, store, pool)
	require.NoError(t, err)
	doc2, err := NewDocument("doc2", alice, 1, store, pool)
	require.NoError(t, err)

	require.True(t, doc1.Section(0).StartEdit(alice))
	require.True(t, doc2.Section(0).StartEdit(NewUser("bob", "pw")))

	assert.NotEqual(t, doc1.ChatAddress(), doc2.ChatAddress())
}

func TestPoolExhaustionDegradesToNoChat(t *testing.T) {
	alice := NewUser("alice", "pw")
	store := newTestStore(t)
	pool := NewAddressPool()
	pool.space = 0 // nothing to hand out

	doc, err := NewDocument("doc1", alice, 1, store, pool)
	require.NoError(t, err)

	assert.True(t, doc.Section(0).StartEdit(alice), "editing proceeds without chat")
	assert.Equal(t, "", doc.ChatAddress())
	assert.False(t, doc.SendChatMessage("hi", "alice"))

	require.NoError(t, doc.Section(0).EndEdit(alice, nil))
}

func TestShareWith(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	doc, _ := newTestDocument(t, alice, 1)

	assert.False(t, doc.IsShared())
	assert.False(t, doc.ShareWith(alice), "creator cannot be a guest")

	assert.True(t, doc.ShareWith(bob))
	assert.False(t, doc.ShareWith(bob), "duplicate invite is idempotent")
	assert.True(t, doc.IsShared())
}

func TestShareWithConcurrent(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	doc, _ := newTestDocument(t, alice, 1)

	var wg sync.WaitGroup
	var added int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if doc.ShareWith(bob) {
				atomic.AddInt32(&added, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), added, "exactly one membership addition")
}

func TestIsEditableBy(t *testing.T) {
	alice := NewUser("alice", "pw")
	bob := NewUser("bob", "pw")
	carol := NewUser("carol", "pw")
	doc, _ := newTestDocument(t, alice, 1)

	assert.True(t, doc.IsEditableBy(alice))
	assert.False(t, doc.IsEditableBy(bob))

	doc.ShareWith(bob)
	assert.True(t, doc.IsEditableBy(bob))
	assert.False(t, doc.IsEditableBy(carol))
}

func TestContentReadableWhileLocked(t *testing.T) {
	alice := NewUser("alice", "pw")
	doc, _ := newTestDocument(t, alice, 1)
	section := doc.Section(0)

	require.True(t, section.StartEdit(alice))
	content := "draft"
	require.NoError(t, section.EndEdit(alice, &content))

	require.True(t, section.StartEdit(alice))
	got, err := section.Content()
	require.NoError(t, err)
	assert.Equal(t, "draft", got, "readers are not blocked by the writer lock")
	require.NoError(t, section.EndEdit(alice, nil))
}
