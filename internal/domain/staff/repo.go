package staff

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// List returns every user, or those with role when role is non-empty.
	List(ctx context.Context, role string) ([]*User, error)
	HasRole(ctx context.Context, id int64, role string) (bool, error)
}
