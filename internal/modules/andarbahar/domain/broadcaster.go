package domain

import "context"

// Roles for connected clients
const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

// Broadcaster delivers outbound events to connected clients. Delivery is
// best-effort per connection; a slow client never blocks the others.
type Broadcaster interface {
	// Broadcast sends an event to every connection
	Broadcast(ctx context.Context, event Event)
	// SendToRole sends an event to connections holding the given role
	SendToRole(ctx context.Context, role string, event Event)
	// SendToUser sends an event to one user's connection
	SendToUser(ctx context.Context, userID int64, event Event)
}
