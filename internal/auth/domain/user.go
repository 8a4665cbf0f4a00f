package domain

import "time"

type User struct {
	Email                Email
	PasswordHash         string // argon2id PHC string
	RequiresSecondFactor bool
	CreatedAt            time.Time
}
