package model

import "time"

// Role values stored in users.role and embedded in the JWT "role" claim.
// Customers browse and book services; providers own and manage listings.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// User represents a registered account on the marketplace.  The same
// table backs both customers and providers; the Role column decides
// which side of the marketplace the account operates on.
//
// Fields:
//  ID             – primary key identifier.
//  Name           – display name shown on bookings and listings.
//  Email          – unique login identifier, stored lower-case.
//  Mobile         – contact number required for booking coordination.
//  WhatsappNumber – optional number used for booking notifications.
//  Address        – postal address of the account holder.
//  Role           – "customer" or "provider".
//  PasswordHash   – bcrypt hash; never serialized.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type User struct {
	ID             uint64     // users.id
	Name           string     // users.name
	Email          string     // users.email
	Mobile         string     // users.mobile
	WhatsappNumber *string    // users.whatsapp_number (nullable)
	Address        string     // users.address
	Role           string     // users.role
	PasswordHash   string     // users.password_hash
	CreatedAt      time.Time  // users.created_at
	UpdatedAt      time.Time  // users.updated_at
}
