package boardapi

import (
	"context"
	"time"
)

const invitationSelect = `
	SELECT i.invitationid, i.email, i.projectid, i.groupid, i.inviterid,
	       i.role, i.token, i.status, i.expires_at, i.created_at,
	       COALESCE(p.name, '') AS project_name,
	       COALESCE(g.name, '') AS group_name
	FROM invitations i
	LEFT JOIN projects p ON p.projectid = i.projectid
	LEFT JOIN task_groups g ON g.groupid = i.groupid
`

func scanInvitation(row interface{ Scan(...any) error }) (*Invitation, error) {
	var inv Invitation
	if err := row.Scan(
		&inv.InvitationID,
		&inv.Email,
		&inv.ProjectID,
		&inv.GroupID,
		&inv.InviterID,
		&inv.Role,
		&inv.Token,
		&inv.Status,
		&inv.ExpiresAt,
		&inv.CreatedAt,
		&inv.ProjectName,
		&inv.GroupName,
	); err != nil {
		return nil, err
	}

	return &inv, nil
}

// CreateInvitation inserts a pending invitation. A duplicate pending invite
// for the same email/project/group scope trips the partial unique index and
// surfaces as Conflict.
func CreateInvitation(ctx context.Context, inv Invitation) (*Invitation, error) {
	row := pool.QueryRow(ctx, `
		INSERT INTO invitations (email, projectid, groupid, inviterid, role, token, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING invitationid, created_at
	`, inv.Email, inv.ProjectID, inv.GroupID, inv.InviterID, inv.Role, inv.Token, inv.ExpiresAt)

	if err := row.Scan(&inv.InvitationID, &inv.CreatedAt); err != nil {
		return nil, dbErr(err)
	}
	inv.Status = InviteStatusPending

	return &inv, nil
}

func GetInvitation(ctx context.Context, invitationID int64) (*Invitation, error) {
	row := pool.QueryRow(ctx, invitationSelect+`WHERE i.invitationid = $1`, invitationID)

	inv, err := scanInvitation(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return inv, nil
}

func listInvitations(ctx context.Context, where string, arg any) ([]Invitation, error) {
	rows, err := pool.Query(ctx, invitationSelect+where+` ORDER BY i.created_at DESC`, arg)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	out := []Invitation{}
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, *inv)
	}

	return out, dbErr(rows.Err())
}

// ListProjectInvitations returns the project's pending invitations.
func ListProjectInvitations(ctx context.Context, projectID int64) ([]Invitation, error) {
	return listInvitations(ctx, `WHERE i.projectid = $1 AND i.status = 'pending'`, projectID)
}

// ListInvitationsForEmail returns pending invitations addressed to the
// given email, enriched with project and group names for display.
func ListInvitationsForEmail(ctx context.Context, email string) ([]Invitation, error) {
	return listInvitations(ctx, `WHERE i.email = $1 AND i.status = 'pending'`, email)
}

// AcceptInvitation flips the invitation to accepted and grants membership
// in one transaction. For group-scoped invitations the group role comes
// from the invitation and project membership is ensured at viewer level
// without ever demoting an existing membership.
func AcceptInvitation(ctx context.Context, inv *Invitation, userID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return dbErr(err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE invitations SET status = 'accepted'
		WHERE invitationid = $1 AND status = 'pending'
	`, inv.InvitationID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		// raced with another accept/revoke
		return ErrConflict
	}

	if inv.GroupID != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO group_members (groupid, userid, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (groupid, userid) DO UPDATE SET role = EXCLUDED.role
		`, *inv.GroupID, userID, inv.Role)
		if err != nil {
			return dbErr(err)
		}

		// the project shell must load for group members, so a viewer
		// floor on the project is part of the grant
		_, err = tx.Exec(ctx, `
			INSERT INTO project_members (projectid, userid, role)
			VALUES ($1, $2, 'viewer')
			ON CONFLICT (projectid, userid) DO NOTHING
		`, inv.ProjectID, userID)
		if err != nil {
			return dbErr(err)
		}
	} else {
		_, err = tx.Exec(ctx, `
			INSERT INTO project_members (projectid, userid, role)
			VALUES ($1, $2, $3)
			ON CONFLICT (projectid, userid) DO NOTHING
		`, inv.ProjectID, userID, inv.Role)
		if err != nil {
			return dbErr(err)
		}
	}

	return dbErr(tx.Commit(ctx))
}

// MarkInvitationExpired records that an accept ran past the deadline.
func MarkInvitationExpired(ctx context.Context, invitationID int64) error {
	_, err := pool.Exec(ctx, `
		UPDATE invitations SET status = 'expired'
		WHERE invitationid = $1 AND status = 'pending'
	`, invitationID)

	return dbErr(err)
}

// DeleteInvitation backs both decline and revoke.
func DeleteInvitation(ctx context.Context, invitationID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM invitations WHERE invitationid = $1`, invitationID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// inviteExpiry computes the deadline for a new invitation.
func inviteExpiry(now time.Time, ttlDays int) time.Time {
	if ttlDays <= 0 {
		ttlDays = 7
	}

	return now.Add(time.Duration(ttlDays) * 24 * time.Hour)
}
