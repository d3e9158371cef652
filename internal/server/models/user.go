// Package models defines the server-side data model and its API projections.
package models

import "time"

// User is a stored account. PasswordHash is never serialized.
type User struct {
	ID               string
	Email            string
	Username         string
	PasswordHash     string
	IsActive         bool
	IsVerified       bool
	Level            int
	ExperiencePoints int
	RecycleCoins     int
	TotalRecycledKg  float64
	FirstName        *string
	LastName         *string
	Location         *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	LastLogin        *time.Time
}

const (
	LevelRecycler      = "Recycler"
	LevelEcoHero       = "EcoHero"
	LevelGreenChampion = "GreenChampion"

	ecoHeroXP       = 1000
	greenChampionXP = 5000
)

// LevelName maps experience points onto the named tiers.
func (u *User) LevelName() string {
	switch {
	case u.ExperiencePoints < ecoHeroXP:
		return LevelRecycler
	case u.ExperiencePoints < greenChampionXP:
		return LevelEcoHero
	default:
		return LevelGreenChampion
	}
}

// XPToNextLevel is zero at the top tier.
func (u *User) XPToNextLevel() int {
	switch {
	case u.ExperiencePoints < ecoHeroXP:
		return ecoHeroXP - u.ExperiencePoints
	case u.ExperiencePoints < greenChampionXP:
		return greenChampionXP - u.ExperiencePoints
	default:
		return 0
	}
}

// FullName falls back to the username unless both name parts are set.
func (u *User) FullName() string {
	if u.FirstName != nil && u.LastName != nil && *u.FirstName != "" && *u.LastName != "" {
		return *u.FirstName + " " + *u.LastName
	}
	return u.Username
}

// UserResponse is the public projection of a User.
type UserResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Username         string     `json:"username"`
	FirstName        *string    `json:"first_name"`
	LastName         *string    `json:"last_name"`
	Location         *string    `json:"location"`
	IsActive         bool       `json:"is_active"`
	IsVerified       bool       `json:"is_verified"`
	Level            int        `json:"level"`
	ExperiencePoints int        `json:"experience_points"`
	RecycleCoins     int        `json:"recycle_coins"`
	TotalRecycledKg  float64    `json:"total_recycled_kg"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLogin        *time.Time `json:"last_login"`
	LevelName        string     `json:"level_name"`
	XPToNextLevel    int        `json:"xp_to_next_level"`
	FullName         string     `json:"full_name"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Username:         u.Username,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Location:         u.Location,
		IsActive:         u.IsActive,
		IsVerified:       u.IsVerified,
		Level:            u.Level,
		ExperiencePoints: u.ExperiencePoints,
		RecycleCoins:     u.RecycleCoins,
		TotalRecycledKg:  u.TotalRecycledKg,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		LastLogin:        u.LastLogin,
		LevelName:        u.LevelName(),
		XPToNextLevel:    u.XPToNextLevel(),
		FullName:         u.FullName(),
	}
}
