package masterdata

import "time"

// Room represents a rentable room in a managed building.
type Room struct {
	ID         string
	TeamID     string
	RoomNumber string
	Building   string
	Floor      int
	TenantID   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Tenant represents the person renting a room.
type Tenant struct {
	ID        string
	TeamID    string
	Name      string
	Phone     string
	Email     string
	RoomID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
