// Package domain contains the core business entities for the Moddi community
// platform. These are pure Go structs with no external dependencies,
// representing the fundamental concepts of the community data layer.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Role classifies a community member. Unrecognized roles are accepted but
// map to the default avatar.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleDesigner Role = "designer"
	RoleClient   Role = "client"
	RolePartner  Role = "partner"
)

// IsAdmin returns true if the role carries administrative privileges.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// roleAvatars maps each known role to its display glyph.
var roleAvatars = map[Role]string{
	RoleAdmin:    "👑",
	RoleDesigner: "🎨",
	RoleClient:   "💼",
	RolePartner:  "🤝",
}

// DefaultAvatar is used for roles outside the known set.
const DefaultAvatar = "👤"

// AvatarForRole returns the display glyph derived from a role.
func AvatarForRole(role Role) string {
	if avatar, ok := roleAvatars[role]; ok {
		return avatar
	}
	return DefaultAvatar
}

// DefaultBio is assigned to newly registered users.
const DefaultBio = "New community member"

// emailPattern accepts local@domain.tld shapes without attempting full
// RFC 5322 validation.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the address matches the accepted pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// MinPasswordLength is enforced on registration only; seeded accounts are
// exempt.
const MinPasswordLength = 6

// User represents a registered community member.
//
// The JSON field names form the stored-blob contract: roster blobs written
// by earlier deployments unmarshal into this struct unchanged. PasswordHash
// is serialized under "password" for that reason; API responses must never
// marshal a User directly.
type User struct {
	// ID is the unique identifier, derived from creation time. Immutable.
	ID int64 `json:"id"`

	// Email is unique across the roster. Matching is case-sensitive.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"password"`

	// FirstName is required; LastName defaults to empty.
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Role is one of the known roles, or any other accepted string.
	Role Role `json:"role"`

	// Avatar is the single glyph derived from Role at creation.
	Avatar string `json:"avatar"`

	// JoinDate is the date-only creation stamp (2006-01-02). Immutable.
	JoinDate string `json:"joinDate"`

	// Bio is free text, defaulting to DefaultBio for new registrants.
	Bio string `json:"bio"`

	// Verified is true only for pre-seeded accounts.
	Verified bool `json:"verified"`
}

// NewUser creates a User with derived fields populated. The caller assigns
// the ID.
func NewUser(email, passwordHash, firstName, lastName string, role Role, now time.Time) *User {
	return &User{
		Email:        strings.TrimSpace(email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Role:         role,
		Avatar:       AvatarForRole(role),
		JoinDate:     now.Format("2006-01-02"),
		Bio:          DefaultBio,
		Verified:     false,
	}
}

// FullName returns the display name.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// UserPatch describes a partial profile update. Nil fields are left
// untouched by Apply.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Role      *Role
	Avatar    *string
	Bio       *string
}

// Apply performs a shallow merge of the patch into the user. Identity
// fields (ID, Email, PasswordHash, JoinDate, Verified) are not patchable.
func (p UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = strings.TrimSpace(*p.FirstName)
	}
	if p.LastName != nil {
		u.LastName = strings.TrimSpace(*p.LastName)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
}

// MatchesSearch reports whether the user matches a community search term.
// The match is case-insensitive over name, role, and bio.
func (u *User) MatchesSearch(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(u.FirstName), term) ||
		strings.Contains(strings.ToLower(u.LastName), term) ||
		strings.Contains(strings.ToLower(string(u.Role)), term) ||
		strings.Contains(strings.ToLower(u.Bio), term)
}
