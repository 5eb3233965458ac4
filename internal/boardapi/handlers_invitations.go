package boardapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/utils"
)

// handleInviteCreate issues a pending invitation, project-wide or scoped to
// one group. A duplicate pending invite for the same scope comes back 409.
func handleInviteCreate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req InviteRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	ctx := c.Request.Context()
	project, err := requireProject(ctx, projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canManageMembers(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if req.GroupID != nil {
		group, err := GetGroup(ctx, *req.GroupID)
		if err != nil {
			writeError(c, err)

			return
		}
		if group.ProjectID != projectID {
			writeError(c, fmt.Errorf("%w: group does not belong to this project", ErrValidation))

			return
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	role := utils.TrimmedOrDefault(req.Role, RoleViewer)

	// inviting an existing member is a validation error, not a conflict
	user, err := kc.LookupUserByEmail(ctx, email)
	if err != nil {
		writeError(c, err)

		return
	}
	if user != nil && isMember(project, user.ID) {
		writeError(c, fmt.Errorf("%w: %s is already a member", ErrValidation, email))

		return
	}

	token, err := utils.GenerateRandomString(32)
	if err != nil {
		writeError(c, err)

		return
	}

	inv, err := CreateInvitation(ctx, Invitation{
		Email:     email,
		ProjectID: projectID,
		GroupID:   req.GroupID,
		InviterID: p.ID,
		Role:      role,
		Token:     token,
		ExpiresAt: inviteExpiry(time.Now(), config.InviteTTLDays),
	})
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invitation": inv,
		"userExists": user != nil,
	})
}

// handleInviteListProject lists the project's pending invitations for the
// member management panel.
func handleInviteListProject(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := requireProject(ctx, projectID, p.ID); err != nil {
		writeError(c, err)

		return
	}

	invites, err := ListProjectInvitations(ctx, projectID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, invites)
}

// handleInviteListMine lists pending invitations addressed to the caller.
func handleInviteListMine(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	invites, err := ListInvitationsForEmail(c.Request.Context(), strings.ToLower(p.Email))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, invites)
}

// requireOwnInvitation loads an invitation and checks it is addressed to
// the caller. Anyone else gets NotFound; the invitation's existence is not
// theirs to learn.
func requireOwnInvitation(c *gin.Context, invitationID int64, email string) (*Invitation, error) {
	inv, err := GetInvitation(c.Request.Context(), invitationID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(inv.Email, email) {
		return nil, ErrNotFound
	}

	return inv, nil
}

// handleInviteAccept grants membership from a pending invitation. Expiry
// is evaluated here, at accept time; an expired invite is marked and
// rejected with 410.
func handleInviteAccept(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	invitationID, ok := pathID(c, "invitationid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	inv, err := requireOwnInvitation(c, invitationID, p.Email)
	if err != nil {
		writeError(c, err)

		return
	}
	if inv.Status != InviteStatusPending {
		writeError(c, ErrConflict)

		return
	}
	if inv.Expired(time.Now()) {
		if err := MarkInvitationExpired(ctx, invitationID); err != nil {
			writeError(c, err)

			return
		}
		writeError(c, ErrExpired)

		return
	}

	if err := AcceptInvitation(ctx, inv, p.ID); err != nil {
		writeError(c, err)

		return
	}

	membershipNotifier.Notify(MembershipEvent{ProjectID: inv.ProjectID, UserID: p.ID})

	c.JSON(http.StatusOK, gin.H{"status": "ok", "projectid": inv.ProjectID})
}

// handleInviteDecline removes a pending invitation addressed to the caller.
func handleInviteDecline(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	invitationID, ok := pathID(c, "invitationid")
	if !ok {
		return
	}

	inv, err := requireOwnInvitation(c, invitationID, p.Email)
	if err != nil {
		writeError(c, err)

		return
	}

	if err := DeleteInvitation(c.Request.Context(), inv.InvitationID); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleInviteRevoke lets a project manager withdraw a pending invitation.
func handleInviteRevoke(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req RevokeInviteRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	ctx := c.Request.Context()
	project, err := requireProject(ctx, projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canManageMembers(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	inv, err := GetInvitation(ctx, req.InvitationID)
	if err != nil {
		writeError(c, err)

		return
	}
	if inv.ProjectID != projectID {
		writeError(c, ErrNotFound)

		return
	}

	if err := DeleteInvitation(ctx, inv.InvitationID); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
