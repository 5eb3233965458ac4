package boardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

func CreateProject(ctx context.Context, ownerID string, req CreateProjectRequest) (int64, error) {
	name := req.Name
	if strings.TrimSpace(name) == "" {
		name = "Untitled Project"
	}

	fieldsJSON, err := json.Marshal(defaultProjectFields())
	if err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, dbErr(err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO projects (name, description, ownerid, fields)
		VALUES ($1, $2, $3, $4)
		RETURNING projectid
	`, name, req.Description, ownerID, fieldsJSON).Scan(&id)
	if err != nil {
		return 0, dbErr(err)
	}

	// owner is always a member too, role pinned
	_, err = tx.Exec(ctx, `
		INSERT INTO project_members (projectid, userid, role)
		VALUES ($1, $2, 'owner')
	`, id, ownerID)
	if err != nil {
		return 0, dbErr(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, dbErr(err)
	}

	return id, nil
}

const projectSelect = `
	SELECT
	  p.projectid,
	  p.name,
	  COALESCE(p.description, '') AS description,
	  p.ownerid,
	  p.fields,
	  p.created_at,
	  p.updated_at,
	  COALESCE(
	    json_agg(
	      json_build_object('userId', m.userid, 'role', m.role)
	      ORDER BY (m.role = 'owner') DESC, m.userid
	    ) FILTER (WHERE m.userid IS NOT NULL),
	    '[]'::json
	  ) AS members_json
	FROM projects p
	LEFT JOIN project_members m ON m.projectid = p.projectid
`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var (
		p           Project
		fieldsJSON  []byte
		membersJSON []byte
	)
	if err := row.Scan(
		&p.ProjectID,
		&p.Name,
		&p.Description,
		&p.OwnerID,
		&fieldsJSON,
		&p.CreatedAt,
		&p.UpdatedAt,
		&membersJSON,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldsJSON, &p.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal project fields: %w", err)
	}
	if err := json.Unmarshal(membersJSON, &p.Members); err != nil {
		return nil, fmt.Errorf("unmarshal members_json: %w", err)
	}

	return &p, nil
}

// GetProject loads a project with its member list. Access checks live with
// the caller; see requireProject.
func GetProject(ctx context.Context, projectID int64) (*Project, error) {
	row := pool.QueryRow(ctx, projectSelect+`
		WHERE p.projectid = $1
		GROUP BY p.projectid
	`, projectID)

	p, err := scanProject(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return p, nil
}

// ListProjectsForUser returns every project the user owns or belongs to,
// most recently updated first.
func ListProjectsForUser(ctx context.Context, userID string) ([]Project, error) {
	rows, err := pool.Query(ctx, projectSelect+`
		JOIN project_members me
		  ON me.projectid = p.projectid AND me.userid = $1
		GROUP BY p.projectid
		ORDER BY p.updated_at DESC
	`, userID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, *p)
	}

	return out, dbErr(rows.Err())
}

func UpdateProject(ctx context.Context, projectID int64, req UpdateProjectRequest) error {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	i := 1

	if req.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		args = append(args, strings.TrimSpace(*req.Name))
		i++
	}
	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", i))
		args = append(args, *req.Description)
		i++
	}
	if req.Fields != nil {
		fieldsJSON, err := json.Marshal(req.Fields)
		if err != nil {
			return err
		}
		sets = append(sets, fmt.Sprintf("fields = $%d", i))
		args = append(args, fieldsJSON)
		i++
	}

	if len(sets) == 0 {
		return fmt.Errorf("%w: no fields to update", ErrValidation)
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, projectID)
	q := fmt.Sprintf("UPDATE projects SET %s WHERE projectid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteProject removes the project; groups, tasks, memberships and
// invitations go with it via the FK cascade.
func DeleteProject(ctx context.Context, projectID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM projects WHERE projectid = $1`, projectID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpsertProjectMember adds the user or updates their role.
func UpsertProjectMember(ctx context.Context, projectID int64, userID, role string) error {
	if role == "" {
		role = RoleViewer
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO project_members (projectid, userid, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (projectid, userid) DO UPDATE SET role = EXCLUDED.role
	`, projectID, userID, role)

	return dbErr(err)
}

// EnsureProjectMember adds the user only if absent, never touching an
// existing membership's role.
func EnsureProjectMember(ctx context.Context, projectID int64, userID, role string) error {
	if role == "" {
		role = RoleViewer
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO project_members (projectid, userid, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (projectid, userid) DO NOTHING
	`, projectID, userID, role)

	return dbErr(err)
}

func RemoveProjectMember(ctx context.Context, projectID int64, userID string) error {
	ct, err := pool.Exec(ctx, `
		DELETE FROM project_members
		WHERE projectid = $1 AND userid = $2
	`, projectID, userID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func SetProjectMemberRole(ctx context.Context, projectID int64, userID, role string) error {
	ct, err := pool.Exec(ctx, `
		UPDATE project_members SET role = $3
		WHERE projectid = $1 AND userid = $2
	`, projectID, userID, role)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// touchProject bumps updated_at so "recently active" orderings work.
func touchProject(ctx context.Context, projectID int64) {
	_, err := pool.Exec(ctx, `UPDATE projects SET updated_at = now() WHERE projectid = $1`, projectID)
	if err != nil {
		// ordering hint only, not worth failing the request
		return
	}
}
