package model

import "time"

// Role of a user record.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is a person that can own or be assigned work. ID is the identity
// provider subject.
type User struct {
	ID          string    `mapstructure:"uid"`
	Email       string    `mapstructure:"email"`
	DisplayName string    `mapstructure:"displayName"`
	Role        Role      `mapstructure:"role"`
	CreatedAt   time.Time `mapstructure:"createdAt"`
}

// Name returns the display name, falling back to the email.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Fields encodes the writable user fields.
func (u User) Fields() map[string]any {
	return map[string]any{
		"uid":         u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        string(u.Role),
	}
}
