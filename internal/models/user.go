package models

import "time"

type User struct {
	ID          int    `gorm:"primaryKey" json:"id"`
	Handle      string `gorm:"uniqueIndex;size:30;not null" json:"handle"`
	DisplayName string `json:"display_name"`
	Email       string `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password    string `gorm:"not null" json:"-"`
	PhotoRef    string `json:"photo_ref"`
	Bio         string `json:"bio"`
	Birthday    string `json:"birthday"` // YYYY-MM-DD as entered on the profile form
	Age         int    `json:"age"`

	// HandleChangedAt is nil until the first rename.
	HandleChangedAt *time.Time `json:"handle_changed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Handle      string `json:"handle" binding:"required,min=3,max=30"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Handle      *string `json:"handle"`
	DisplayName *string `json:"display_name"`
	PhotoRef    *string `json:"photo_ref"`
	Bio         *string `json:"bio"`
	Birthday    *string `json:"birthday"`
	Age         *int    `json:"age" binding:"omitempty,min=0,max=150"`
}

type AuthResponse struct {
	Token   string `json:"token"`
	User    User   `json:"user"`
	Message string `json:"message"`
}
