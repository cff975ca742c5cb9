package users

import "github.com/ariefcatur/go-order-overlay/internal/ident"

const (
	EventUserInserted = "UserInserted"
	EventUserUpdated  = "UserUpdated"
	EventUserDeleted  = "UserDeleted"
)

type UserChangedPayload struct {
	UserID   ident.ID `json:"user_id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
}

type UserDeletedPayload struct {
	UserID ident.ID `json:"user_id"`
}
