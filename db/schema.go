package db

// User table queries
const (
	CreateUserQuery = `
		INSERT INTO "Users" (username, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (username) DO NOTHING`

	GetAllUsersQuery = `
		SELECT username, created_at
		FROM "Users"
		ORDER BY created_at DESC`
)

// Document table queries
const (
	CreateDocumentQuery = `
		INSERT INTO "Documents" (creator, name, sections, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (creator, name) DO NOTHING`

	GetUserDocumentsQuery = `
		SELECT creator, name, sections, created_at
		FROM "Documents"
		WHERE creator = $1
		ORDER BY created_at DESC`
)

// Permission table queries
const (
	CreatePermissionQuery = `
		INSERT INTO "DocumentPermissions" (creator, name, guest, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (creator, name, guest) DO NOTHING`

	GetDocumentPermissionsQuery = `
		SELECT guest, created_at
		FROM "DocumentPermissions"
		WHERE creator = $1 AND name = $2`
)
