package boardapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"taskgrid/internal/schema"
)

const taskSelect = `
	SELECT taskid, projectid, COALESCE(groupid, 0), ord, userid,
	       COALESCE(assigned_to, ''), data, created_at, updated_at
	FROM tasks
`

func scanTask(row interface{ Scan(...any) error }) (*Task, error) {
	var (
		t        Task
		dataJSON []byte
	)
	if err := row.Scan(
		&t.TaskID,
		&t.ProjectID,
		&t.GroupID,
		&t.Order,
		&t.CreatorID,
		&t.AssignedTo,
		&dataJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dataJSON, &t.Data); err != nil {
		return nil, fmt.Errorf("unmarshal task data: %w", err)
	}

	return &t, nil
}

// CreateTask inserts the envelope plus payload, appended to the group's
// ordering.
func CreateTask(ctx context.Context, projectID, groupID int64, creatorID, assignedTo string, data schema.Payload) (*Task, error) {
	if data == nil {
		data = schema.Payload{}
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	row := pool.QueryRow(ctx, `
		INSERT INTO tasks (projectid, groupid, ord, userid, assigned_to, data)
		SELECT $1, $2, COALESCE(MAX(ord) + 1, 0), $3, NULLIF($4, ''), $5
		FROM tasks WHERE groupid = $2
		RETURNING taskid, projectid, COALESCE(groupid, 0), ord, userid,
		          COALESCE(assigned_to, ''), data, created_at, updated_at
	`, projectID, groupID, creatorID, assignedTo, dataJSON)

	t, err := scanTask(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return t, nil
}

func GetTask(ctx context.Context, taskID int64) (*Task, error) {
	row := pool.QueryRow(ctx, taskSelect+`WHERE taskid = $1`, taskID)

	t, err := scanTask(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return t, nil
}

// listTasks is shared by the group and project listings; ties on ord break
// by insertion id so the ordering is stable.
func listTasks(ctx context.Context, where string, arg any) ([]Task, error) {
	rows, err := pool.Query(ctx, taskSelect+where+` ORDER BY ord ASC, taskid ASC`, arg)
	if err != nil {
		return nil, dbErr(err)
	}
	defer rows.Close()

	out := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, dbErr(err)
		}
		out = append(out, *t)
	}

	return out, dbErr(rows.Err())
}

func ListTasksByGroup(ctx context.Context, groupID int64) ([]Task, error) {
	return listTasks(ctx, `WHERE groupid = $1`, groupID)
}

func ListTasksByProject(ctx context.Context, projectID int64) ([]Task, error) {
	return listTasks(ctx, `WHERE projectid = $1`, projectID)
}

// PatchTaskData merges the patch into the task payload: supplied keys are
// written (null clears), everything else is untouched. Each key update is
// an independent write, so concurrent edits to different fields of the
// same task never conflict.
func PatchTaskData(ctx context.Context, taskID int64, patch schema.Payload) (*Task, error) {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return nil, err
	}

	row := pool.QueryRow(ctx, `
		UPDATE tasks SET data = data || $2::jsonb, updated_at = now()
		WHERE taskid = $1
		RETURNING taskid, projectid, COALESCE(groupid, 0), ord, userid,
		          COALESCE(assigned_to, ''), data, created_at, updated_at
	`, taskID, patchJSON)

	t, err := scanTask(row)
	if err != nil {
		return nil, dbErr(err)
	}

	return t, nil
}

func DeleteTask(ctx context.Context, taskID int64) error {
	ct, err := pool.Exec(ctx, `DELETE FROM tasks WHERE taskid = $1`, taskID)
	if err != nil {
		return dbErr(err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ReorderFailure reports one item of a reorder batch that did not apply.
type ReorderFailure struct {
	TaskID int64  `json:"taskid"`
	Error  string `json:"error"`
}

// ReorderTasks applies order/group assignment for a batch of tasks. Items
// are applied independently: one bad id does not abort its siblings, and
// failures are reported alongside the successes. The projectID guard keeps
// a batch from moving tasks it should not touch.
func ReorderTasks(ctx context.Context, projectID int64, items []ReorderItem) (int, []ReorderFailure) {
	applied := 0
	var failures []ReorderFailure

	for _, item := range items {
		ct, err := pool.Exec(ctx, `
			UPDATE tasks SET ord = $2, groupid = $3, updated_at = now()
			WHERE taskid = $1 AND projectid = $4
		`, item.TaskID, item.Order, item.GroupID, projectID)
		if err != nil {
			failures = append(failures, ReorderFailure{TaskID: item.TaskID, Error: dbErr(err).Error()})
			continue
		}
		if ct.RowsAffected() == 0 {
			failures = append(failures, ReorderFailure{TaskID: item.TaskID, Error: ErrNotFound.Error()})
			continue
		}
		applied++
	}

	return applied, failures
}

// BackfillGroupShortIDs assigns a fresh short code to every task in the
// group missing a value under any of the given keys. The scan-and-patch is
// not transactional across tasks; a crash mid-way leaves some tasks filled,
// which is fine because re-running only fills the remaining empties.
func BackfillGroupShortIDs(ctx context.Context, groupID int64, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	tasks, err := ListTasksByGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}

	missing := make([][]string, len(tasks))
	need := 0
	for i, t := range tasks {
		missing[i] = schema.MissingShortIDs(t.Data, keys)
		need += len(missing[i])
	}
	if need == 0 {
		return 0, nil
	}

	codes, err := NextShortIDs(ctx, groupID, need)
	if err != nil {
		return 0, err
	}

	batch := &pgx.Batch{}
	idx := 0
	queued := 0
	for i, t := range tasks {
		if len(missing[i]) == 0 {
			continue
		}
		patch := schema.Payload{}
		for _, key := range missing[i] {
			patch[key] = schema.String(codes[idx])
			idx++
		}
		patchJSON, err := json.Marshal(patch)
		if err != nil {
			return 0, err
		}
		batch.Queue(`
			UPDATE tasks SET data = data || $2::jsonb, updated_at = now()
			WHERE taskid = $1
		`, t.TaskID, patchJSON)
		queued++
	}

	br := pool.SendBatch(ctx, batch)
	defer br.Close()

	filled := 0
	for range queued {
		if _, err := br.Exec(); err != nil {
			return filled, dbErr(err)
		}
		filled++
	}

	return filled, nil
}
