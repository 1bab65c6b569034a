package core

import "time"

type HolderStatus string

const (
	HolderActive   HolderStatus = "ACTIVE"
	HolderInactive HolderStatus = "INACTIVE"
)

// Holder is a registered customer. Accounts and loans both hang off a
// holder, and the loan operations enforce that the account they touch
// belongs to the loan's holder.
type Holder struct {
	ID           int
	Username     string
	PasswordHash string
	Email        string
	FullName     string
	Role         string
	Status       HolderStatus
	CreatedAt    time.Time
	LastLogin    time.Time
}
