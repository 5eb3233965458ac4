package boardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"taskgrid/internal/schema"
)

const groupSelect = `
	SELECT
	  g.groupid,
	  g.projectid,
	  g.name,
	  COALESCE(g.description, '') AS description,
	  g.ord,
	  g.icon,
	  g.color,
	  g.userid,
	  g.fields,
	  g.created_at,
	  g.updated_at,
	  COALESCE(
	    json_agg(
	      json_build_object('userId', m.userid, 'role', m.role)
	      ORDER BY m.userid
	    ) FILTER (WHERE m.userid IS NOT NULL),
	    '[]'::json
	  ) AS members_json
	FROM task_groups g
	LEFT JOIN group_members m ON m.groupid = g.groupid
`

func scanGroup(row interface{ Scan(...any) error }) (*TaskGroup, error) {
	var (
		g           TaskGroup
		fieldsJSON  []byte
		membersJSON []byte
	)
	if err := row.Scan(
		&g.GroupID,
		&g.ProjectID,
		&g.Name,
		&g.Description,
		&g.Order,
		&g.Icon,
		&g.Color,
		&g.CreatorID,
		&fieldsJSON,
		&g.CreatedAt,
		&g.UpdatedAt,
		&membersJSON,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(fieldsJSON, &g.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal group fields: %w", err)
	}
	if err := json.Unmarshal(membersJSON, &g.Members); err != nil {
		return nil, fmt.Errorf("unmarshal group members: %w", err)
	}

	return &g, nil
}

// CreateGroup inserts a group at the end of the project's ordering with the
// given field list.
func CreateGroup(ctx context.Context, projectID int64, creatorID string, req CreateGroupRequest, fields []schema.FieldDefinition) (int64, error) {
	if fields == nil {
		fields = []schema.FieldDefinition{}
	}
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return 0, err
	}

	icon := req.Icon
	if icon == "" {
		icon = "LayoutGrid"
	}
	color := req.Color
	if color == "" {
		color = "indigo"
	}

	var id int64
	err = pool.QueryRow(ctx, `
		INSERT INTO task_groups (projectid, name, description, ord, icon, color, userid, fields)
		SELECT $1, $2, $3, COALESCE(MAX(ord) + 1, 0), $4, $5, $6, $7
		FROM task_groups WHERE projectid = $1
		RETURNING groupid
	`, projectID, req.Name, req.Description, icon, color, creatorID, fieldsJSON).Scan(&id)
	if err != nil {
		return 0, dbErr(err)
	}

	return id, nil
}

func GetGroup(ctx context.Context, groupID int64) (*TaskGroup, error) {
	row := pool.QueryRow(ctx, groupSelect+`
		WHERE g.groupid = $1
		GROUP BY g.groupid
	`, groupID)

	g, err := scanGroup(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return g, nil
}

func ListGroups(ctx context.Context, projectID int64) ([]TaskGroup, error) {
	rows, err := pool.Query(ctx, groupSelect+`
		WHERE g.projectid = $1
		GROUP BY g.groupid
		ORDER BY g.ord ASC, g.groupid ASC
	`, projectID)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	out := []TaskGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, *g)
	}

	return out, dbErr(rows.Err())
}

func UpdateGroupMeta(ctx context.Context, groupID int64, req UpdateGroupRequest) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)
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
	if req.Icon != nil {
		sets = append(sets, fmt.Sprintf("icon = $%d", i))
		args = append(args, *req.Icon)
		i++
	}
	if req.Color != nil {
		sets = append(sets, fmt.Sprintf("color = $%d", i))
		args = append(args, *req.Color)
		i++
	}

	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, groupID)
	q := fmt.Sprintf("UPDATE task_groups SET %s WHERE groupid = $%d", strings.Join(sets, ", "), i)

	ct, err := pool.Exec(ctx, q, args...)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateGroupFields persists a replacement field list.
func UpdateGroupFields(ctx context.Context, groupID int64, fields []schema.FieldDefinition) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	ct, err := pool.Exec(ctx, `
		UPDATE task_groups SET fields = $2, updated_at = now()
		WHERE groupid = $1
	`, groupID, fieldsJSON)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteGroup removes the group; its tasks and group memberships cascade at
// the storage layer, so a crash cannot leave half a deletion.
func DeleteGroup(ctx context.Context, groupID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM task_groups WHERE groupid = $1`, groupID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func UpsertGroupMember(ctx context.Context, groupID int64, userID, role string) error {
	if role == "" {
		role = RoleViewer
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO group_members (groupid, userid, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (groupid, userid) DO UPDATE SET role = EXCLUDED.role
	`, groupID, userID, role)

	return dbErr(err)
}

// NextShortIDs reserves n codes from the group's monotonic sequence and
// returns them formatted. The single UPDATE makes concurrent reservations
// race-free, which is what keeps short codes unique per group.
func NextShortIDs(ctx context.Context, groupID int64, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	var seq int64
	err := pool.QueryRow(ctx, `
		UPDATE task_groups SET id_seq = id_seq + $2
		WHERE groupid = $1
		RETURNING id_seq
	`, groupID, n).Scan(&seq)
	if err != nil {
		return nil, dbErr(err)
	}

	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("%s%04d", schema.ShortIDPrefix, seq-int64(n)+int64(i)+1)
	}

	return codes, nil
}
