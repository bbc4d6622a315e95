package staff

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/hospital/internal/platform/auth"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	minPasswordLen = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLen = 72
	maxUsernameLen = 64
)

// User maps to the staff_user table.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         string    `db:"role" json:"role"`
	Department   *string   `db:"department" json:"department,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// CreateInput is the request to add a staff account.
type CreateInput struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	FullName   string  `json:"full_name"`
	Role       string  `json:"role"`
	Department *string `json:"department"`
}

// Validate normalises the input and checks every field.
func (in *CreateInput) Validate() error {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.FullName = strings.TrimSpace(in.FullName)
	in.Role = strings.TrimSpace(in.Role)

	switch {
	case len(in.Username) < 3 || len(in.Username) > maxUsernameLen:
		return fmt.Errorf("%w: username must be 3-%d characters", ErrInvalidInput, maxUsernameLen)
	case strings.ContainsAny(in.Username, " \t\n"):
		return fmt.Errorf("%w: username must not contain whitespace", ErrInvalidInput)
	case len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen:
		return fmt.Errorf("%w: password must be %d-%d bytes", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	case in.FullName == "":
		return fmt.Errorf("%w: full_name required", ErrInvalidInput)
	case !auth.ValidRole(in.Role):
		return fmt.Errorf("%w: role must be one of HR, Doctor, FrontDesk, Admin", ErrInvalidInput)
	}
	if in.Department != nil {
		d := strings.TrimSpace(*in.Department)
		if d == "" {
			in.Department = nil
		} else {
			in.Department = &d
		}
	}
	return nil
}
