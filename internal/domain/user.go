package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id" db:"id"`
	Email        string    `json:"email" dynamodbav:"email" db:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash" db:"password_hash"`
	Name         string    `json:"name" dynamodbav:"name" db:"name"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone,omitempty" db:"phone"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at" db:"updated_at"`
}

// HasPhone reports whether the user can receive codes by SMS.
func (u *User) HasPhone() bool {
	return u.Phone != nil && *u.Phone != ""
}

type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Name     string  `json:"name" validate:"required"`
	Password string  `json:"password" validate:"required,min=8,max=72"`
	Phone    *string `json:"phone" validate:"omitempty,e164"`
}
