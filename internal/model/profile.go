package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Profile struct {
	ID                  uuid.UUID
	Email               string
	Name                string
	AvatarURL           string
	Phone               string
	Address             string
	Role                Role
	IsPremium           bool
	PremiumBookUnlocked bool
	BoostedUntil        *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Profile) IsBoosted(now time.Time) bool {
	return p.BoostedUntil != nil && now.Before(*p.BoostedUntil)
}

type ProfileUpdate struct {
	Name    *string
	Phone   *string
	Address *string
}

type LeaderboardEntry struct {
	UserID    uuid.UUID
	Name      string
	AvatarURL string
	Stars     int
}
