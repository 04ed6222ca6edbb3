package services

import (
	"encoding/json"
	"fmt"
	"log"

	"Turing/models"
)

// NotificationService registers per-user notification channels and
// dispatches invite notifications to them. Users with no registered
// channel keep their notifications queued until they register one.
type NotificationService struct {
	users *UserDirectory
}

// NewNotificationService creates a notification service over the user
// directory.
func NewNotificationService(users *UserDirectory) *NotificationService {
	return &NotificationService{users: users}
}

// RegisterChannel installs a notifier for the user and flushes any
// pending notifications to it. The user must exist, be online and
// present the right password.
func (ns *NotificationService) RegisterChannel(username, password string, notifier Notifier) error {
	if username == "" || password == "" || notifier == nil {
		return ErrInvalidInput
	}
	user := ns.users.Get(username)
	if user == nil {
		return ErrUnknownUser
	}
	if !user.IsOnline() || !user.CheckPassword(password) {
		return ErrNotAllowed
	}
	user.SetNotifier(notifier)
	return nil
}

// NotifyInvite sends the share notification for doc to the invited
// user, delivering immediately or queueing depending on whether a
// channel is registered.
func (ns *NotificationService) NotifyInvite(user *User, doc *Document) error {
	payload, err := json.Marshal(models.DocumentInfo{
		Name:     doc.Name(),
		Creator:  doc.Creator().Username,
		Sections: doc.NumberOfSections(),
		Shared:   doc.IsShared(),
	})
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}
	user.SendNotification(payload)
	log.Printf("Invite notification for %s dispatched to %s", doc.Name(), user.Username)
	return nil
}
