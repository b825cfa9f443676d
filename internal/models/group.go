package models

// Member is one participant of a group.
type Member struct {
	// ID is the user ID of the member.
	ID string

	// FullName is the display name shown in balance views.
	FullName string

	// Email is the member's contact address.
	Email string
}

// Group is a set of members who share expenses.
// A group's member set is the universe of default shareholders for its expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Trip").
	Name string

	// Members is the current member list, unique by ID.
	Members []Member

	// Currency is the ISO code all of this group's amounts are expressed in.
	Currency string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// MemberIDs returns the IDs of the group's members in stored order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// HasMember reports whether userID is a current member of the group.
func (g *Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// FindMember returns the member with the given ID.
func (g *Group) FindMember(userID string) (Member, bool) {
	for _, m := range g.Members {
		if m.ID == userID {
			return m, true
		}
	}
	return Member{}, false
}
