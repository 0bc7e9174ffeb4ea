package identity

import (
	"time"
)

// User maps to the users table. The password column holds a bcrypt hash and
// never leaves the service layer.
type User struct {
	ID             int64     `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	Password       string    `db:"password" json:"-"`
	Name           string    `db:"name" json:"name"`
	Role           string    `db:"role" json:"role"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"last_modified_at"`
}
