package models

// Role is a member's permission level within a group.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// Group represents a set of users who share expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// CreatedBy is the user who created the group. They start as its admin.
	CreatedBy string

	// Members is the current membership. Populated by GetGroup.
	Members []GroupMember

	CreatedAt int64
}

// GroupMember identifies a user's membership in a group.
type GroupMember struct {
	GroupID  string
	UserID   string
	Role     Role
	JoinedAt int64

	// DisplayName is joined from the users table for presentation.
	DisplayName string
}

// Member returns the membership for userID, or nil.
func (g *Group) Member(userID string) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// IsAdmin reports whether userID is an admin of the group.
func (g *Group) IsAdmin(userID string) bool {
	m := g.Member(userID)
	return m != nil && m.Role == RoleAdmin
}

// MemberIDs returns the member user IDs in membership order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UserID
	}
	return ids
}
