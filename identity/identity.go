package identity

import (
	"errors"
	"fmt"
	"strings"
)

// Role is the canonical role name carried in access tokens. The string
// values are part of the token wire contract: previously issued tokens
// compare role claims byte-for-byte, so these names must never change.
type Role string

const (
	RoleSuperAdmin    Role = "SuperAdmin"
	RolePlatformAdmin Role = "PlatformAdmin"
	RoleClinicOwner   Role = "ClinicOwner"
	RoleClinicManager Role = "ClinicManager"
	RoleDoctor        Role = "Doctor"
	RoleAdminStaff    Role = "AdminStaff"
	RoleReceptionist  Role = "Receptionist"
	RoleNurse         Role = "Nurse"
	RolePatient       Role = "Patient"
)

var roles = map[Role]struct{}{
	RoleSuperAdmin:    {},
	RolePlatformAdmin: {},
	RoleClinicOwner:   {},
	RoleClinicManager: {},
	RoleDoctor:        {},
	RoleAdminStaff:    {},
	RoleReceptionist:  {},
	RoleNurse:         {},
	RolePatient:       {},
}

// String returns the canonical name of the role.
func (r Role) String() string {
	return string(r)
}

// Valid reports whether r is one of the known roles. Comparison is
// case-sensitive.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// ParseRole maps a canonical role name back to a Role.
func ParseRole(name string) (Role, error) {
	r := Role(name)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", name)
	}
	return r, nil
}

// User is the verified identity handed to the engine by the credential
// verification layer. The engine never sees passwords or their hashes;
// by the time a User reaches Issue, the credentials have already been
// checked elsewhere.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	Email       string
	Role        Role
	ClinicID    string
	IsActive    bool
	IsBlocked   bool
	BlockReason string
}

// FullName returns the display name: trimmed first and last name joined
// by a single space. Either part may be empty.
func (u User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Validate checks structural invariants on the identity record itself.
// It does not check activation or blocking; those are issuance-time
// concerns handled by the engine.
func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("identity: missing user id")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("identity: unknown role %q", u.Role)
	}
	if u.IsBlocked && strings.TrimSpace(u.BlockReason) == "" {
		return errors.New("identity: blocked user requires a block reason")
	}
	return nil
}
