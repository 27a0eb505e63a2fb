package domain

// Roles carried in the bearer token's "role" claim.
const (
	RoleAdmin   = "admin"
	RoleClient  = "client"
	RoleCarrier = "carrier"
)
