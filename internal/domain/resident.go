package domain

// Role names a resident's permission level.
type Role string

const (
	// RoleResident may manage their own bookings and read their own usage.
	RoleResident Role = "resident"
	// RoleAdmin may additionally read the usage report across all residents.
	RoleAdmin Role = "admin"
)

// Resident is a directory entry: the identity string used as booking owner,
// plus the display name and apartment shown next to their bookings.
type Resident struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Apartment string `json:"apartment"`
	Role      Role   `json:"role"`
}
