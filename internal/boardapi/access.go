package boardapi

import (
	"context"
	"log"
	"sync"

	"taskgrid/internal/utils"
)

// The access policy, stated once:
//
//	read project/board/groups/tasks        -> any member (owner included)
//	mutate groups/tasks/fields             -> any member with editor or above
//	manage members and invitations         -> owner or admin
//	delete project, edit project schema    -> owner only
//
// Outsiders get NotFound on reads, never Forbidden, so probing ids reveals
// nothing.

func isOwner(p *Project, userID string) bool {
	return p.OwnerID == userID
}

// roleOf resolves the principal's effective project role; empty string
// means not a member at all.
func roleOf(p *Project, userID string) string {
	if isOwner(p, userID) {
		return RoleOwner
	}
	for _, m := range p.Members {
		if m.UserID == userID {
			return m.Role
		}
	}

	return ""
}

func isMember(p *Project, userID string) bool {
	return roleOf(p, userID) != ""
}

func canEdit(p *Project, userID string) bool {
	return utils.Contains([]string{RoleOwner, RoleAdmin, RoleEditor}, roleOf(p, userID))
}

func canManageMembers(p *Project, userID string) bool {
	return utils.Contains([]string{RoleOwner, RoleAdmin}, roleOf(p, userID))
}

// requireProject loads the project and enforces membership, translating
// both "does not exist" and "exists but not yours" into NotFound.
func requireProject(ctx context.Context, projectID int64, userID string) (*Project, error) {
	p, err := GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !isMember(p, userID) {
		return nil, ErrNotFound
	}

	return p, nil
}

// MembershipEvent signals that a project's member set changed, so any
// interested observer (the sidebar feed, a cache) can re-fetch.
type MembershipEvent struct {
	ProjectID int64
	UserID    string
}

// Notifier is an explicit observer channel replacing ambient global events:
// acceptance of an invitation publishes here instead of poking shared state.
type Notifier struct {
	mu   sync.RWMutex
	subs []chan MembershipEvent
}

func (n *Notifier) Subscribe() <-chan MembershipEvent {
	ch := make(chan MembershipEvent, 8)

	n.mu.Lock()
	n.subs = append(n.subs, ch)
	n.mu.Unlock()

	return ch
}

// Notify fans the event out without blocking; a slow subscriber drops
// events rather than stalling request handling.
func (n *Notifier) Notify(ev MembershipEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

var membershipNotifier = &Notifier{}

// watchMembership logs membership changes for the lifetime of the server.
func watchMembership(ctx context.Context) {
	ch := membershipNotifier.Subscribe()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-ch:
				log.Printf("membership changed: project=%d user=%s", ev.ProjectID, ev.UserID)
			}
		}
	}()
}
