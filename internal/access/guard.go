// Package access decides who may put the bot to work.
package access

import "github.com/witibot/witibot/internal/backlog"

// Guard admits listening requests against a static allowlist of approved
// conversations plus one distinguished operator identity. The check runs
// once, at activation time; afterwards membership in the backlog table is
// the authorization signal.
type Guard struct {
	approved map[backlog.ConversationID]bool
	operator int64
}

// NewGuard creates a Guard. operator is the developer/operator chat and
// user ID; it may activate listening anywhere and is the target of
// startup and failure notifications.
func NewGuard(approved []int64, operator int64) *Guard {
	g := &Guard{
		approved: make(map[backlog.ConversationID]bool, len(approved)),
		operator: operator,
	}
	for _, id := range approved {
		g.approved[backlog.ConversationID(id)] = true
	}
	return g
}

// MayActivate reports whether listening may be started in conversation by
// the requesting user: the conversation is approved, or the requester is
// the operator.
func (g *Guard) MayActivate(conversation backlog.ConversationID, userID int64) bool {
	return g.approved[conversation] || userID == g.operator
}

// IsOperator reports whether id (a user or conversation identity) is the
// distinguished operator. Gates reload and error-log retrieval.
func (g *Guard) IsOperator(id int64) bool {
	return id == g.operator
}

// Operator returns the operator identity, used as the notification target.
func (g *Guard) Operator() int64 { return g.operator }
