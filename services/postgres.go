package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"Turing/db"
)

// DatabaseService mirrors users, documents and share permissions into
// PostgreSQL. The in-memory directories stay authoritative; the mirror
// is best effort and its failures are logged, never surfaced to the
// client. A nil *DatabaseService is valid and records nothing.
type DatabaseService struct {
	db *sql.DB
}

// NewDatabaseService opens and verifies the Postgres connection.
func NewDatabaseService(host, port, user, password, dbname string) (*DatabaseService, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database")
	return &DatabaseService{db: conn}, nil
}

// Close closes the connection.
func (ds *DatabaseService) Close() error {
	if ds == nil || ds.db == nil {
		return nil
	}
	return ds.db.Close()
}

// UserRecord is one mirrored sign-up.
type UserRecord struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// DocumentRecord is one mirrored document creation.
type DocumentRecord struct {
	Creator   string    `json:"creatorUsername"`
	Name      string    `json:"name"`
	Sections  int       `json:"numberOfSections"`
	CreatedAt time.Time `json:"createdAt"`
}

// PermissionRecord is one mirrored invite.
type PermissionRecord struct {
	Guest     string    `json:"guest"`
	CreatedAt time.Time `json:"createdAt"`
}

// RecordUser mirrors a successful sign-up.
func (ds *DatabaseService) RecordUser(username string) {
	ds.exec(db.CreateUserQuery, username)
}

// RecordDocument mirrors a successful document creation.
func (ds *DatabaseService) RecordDocument(creator, name string, sections int) {
	ds.exec(db.CreateDocumentQuery, creator, name, sections)
}

// RecordPermission mirrors a successful invite.
func (ds *DatabaseService) RecordPermission(creator, name, guest string) {
	ds.exec(db.CreatePermissionQuery, creator, name, guest)
}

// ListUsers returns every mirrored sign-up, newest first.
func (ds *DatabaseService) ListUsers() ([]UserRecord, error) {
	rows, err := ds.db.Query(db.GetAllUsersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []UserRecord
	for rows.Next() {
		var u UserRecord
		if err := rows.Scan(&u.Username, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

// ListDocuments returns the mirrored documents of one creator, newest
// first.
func (ds *DatabaseService) ListDocuments(creator string) ([]DocumentRecord, error) {
	rows, err := ds.db.Query(db.GetUserDocumentsQuery, creator)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		if err := rows.Scan(&d.Creator, &d.Name, &d.Sections, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}
	return docs, nil
}

// ListPermissions returns the mirrored guest list of one document.
func (ds *DatabaseService) ListPermissions(creator, name string) ([]PermissionRecord, error) {
	rows, err := ds.db.Query(db.GetDocumentPermissionsQuery, creator, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var perms []PermissionRecord
	for rows.Next() {
		var p PermissionRecord
		if err := rows.Scan(&p.Guest, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan permission row: %w", err)
		}
		perms = append(perms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permission rows: %w", err)
	}
	return perms, nil
}

func (ds *DatabaseService) exec(query string, args ...interface{}) {
	if ds == nil || ds.db == nil {
		return
	}
	if _, err := ds.db.Exec(query, args...); err != nil {
		log.Printf("Postgres mirror write failed: %v", err)
	}
}
