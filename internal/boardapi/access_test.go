package boardapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProject() *Project {
	return &Project{
		ProjectID: 1,
		OwnerID:   "owner-1",
		Members: []Member{
			{UserID: "owner-1", Role: RoleOwner},
			{UserID: "admin-1", Role: RoleAdmin},
			{UserID: "editor-1", Role: RoleEditor},
			{UserID: "viewer-1", Role: RoleViewer},
		},
	}
}

func TestRoleOf(t *testing.T) {
	p := testProject()

	assert.Equal(t, RoleOwner, roleOf(p, "owner-1"))
	assert.Equal(t, RoleAdmin, roleOf(p, "admin-1"))
	assert.Equal(t, RoleViewer, roleOf(p, "viewer-1"))
	assert.Equal(t, "", roleOf(p, "stranger"))
}

func TestAccessPredicates(t *testing.T) {
	p := testProject()

	for user, want := range map[string]bool{
		"owner-1": true, "admin-1": true, "editor-1": true,
		"viewer-1": false, "stranger": false,
	} {
		assert.Equal(t, want, canEdit(p, user), "canEdit(%s)", user)
	}

	for user, want := range map[string]bool{
		"owner-1": true, "admin-1": true,
		"editor-1": false, "viewer-1": false, "stranger": false,
	} {
		assert.Equal(t, want, canManageMembers(p, user), "canManageMembers(%s)", user)
	}

	assert.True(t, isMember(p, "viewer-1"))
	assert.False(t, isMember(p, "stranger"))
	assert.True(t, isOwner(p, "owner-1"))
	assert.False(t, isOwner(p, "admin-1"))
}

// The owner is the owner even without a membership row; bootstrap order
// must not matter.
func TestOwnerWithoutMembershipRow(t *testing.T) {
	p := &Project{ProjectID: 2, OwnerID: "owner-2"}

	assert.Equal(t, RoleOwner, roleOf(p, "owner-2"))
	assert.True(t, canEdit(p, "owner-2"))
	assert.True(t, canManageMembers(p, "owner-2"))
}

func TestNotifierFanOut(t *testing.T) {
	n := &Notifier{}

	a := n.Subscribe()
	b := n.Subscribe()

	ev := MembershipEvent{ProjectID: 7, UserID: "u1"}
	n.Notify(ev)

	select {
	case got := <-a:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber a never got the event")
	}
	select {
	case got := <-b:
		assert.Equal(t, ev, got)
	case <-time.After(time.Second):
		t.Fatal("subscriber b never got the event")
	}
}

func TestNotifierDropsWhenSubscriberStalls(t *testing.T) {
	n := &Notifier{}
	ch := n.Subscribe()

	// overflow the buffer; Notify must never block
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			n.Notify(MembershipEvent{ProjectID: int64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked on a slow subscriber")
	}

	require.NotEmpty(t, ch)
}
