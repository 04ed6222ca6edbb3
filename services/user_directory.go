package services

import (
	"strings"
	"sync"
)

// UserDirectory is the process-wide registry of users. Sign-up is also
// reachable remotely through the HTTP endpoint in the handlers package;
// login and lookup are local to the coordination core.
type UserDirectory struct {
	users sync.Map // username -> *User
	db    *DatabaseService
}

// NewUserDirectory creates an empty directory. The database service may
// be nil when no Postgres mirror is configured.
func NewUserDirectory(db *DatabaseService) *UserDirectory {
	return &UserDirectory{db: db}
}

// SignUp registers a new user. It returns false when the username is
// already taken and ErrInvalidInput for empty credentials or usernames
// containing path separators, which would break the storage key.
func (ud *UserDirectory) SignUp(username, password string) (bool, error) {
	if username == "" || password == "" || strings.ContainsAny(username, "/\\") {
		return false, ErrInvalidInput
	}
	_, loaded := ud.users.LoadOrStore(username, NewUser(username, password))
	if loaded {
		return false, nil
	}
	ud.db.RecordUser(username)
	return true, nil
}

// LogIn marks the user online and returns it. A wrong password is a
// normal rejection reported as a nil user with no error; an unknown
// username and a double login are errors.
func (ud *UserDirectory) LogIn(username, password string) (*User, error) {
	user := ud.Get(username)
	if user == nil {
		return nil, ErrUnknownUser
	}
	if !user.CheckPassword(password) {
		return nil, nil
	}
	if !user.SetOnline(true) {
		return nil, ErrAlreadyLogged
	}
	return user, nil
}

// Get returns the user with the given username, or nil.
func (ud *UserDirectory) Get(username string) *User {
	v, ok := ud.users.Load(username)
	if !ok {
		return nil
	}
	return v.(*User)
}
