package boardapi

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/authmw"
	"taskgrid/internal/schema"
)

// requireGroup resolves a group and enforces access through its parent
// project. Outsiders get NotFound for the group, same as for the project.
func requireGroup(ctx context.Context, groupID int64, userID string) (*TaskGroup, *Project, error) {
	group, err := GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}

	project, err := requireProject(ctx, group.ProjectID, userID)
	if err != nil {
		return nil, nil, err
	}

	return group, project, nil
}

func handleGroupCreate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req CreateGroupRequest
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
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	id, err := CreateGroup(ctx, projectID, p.ID, req, nil)
	if err != nil {
		writeError(c, err)

		return
	}

	group, err := GetGroup(ctx, id)
	if err != nil {
		writeError(c, err)

		return
	}

	touchProject(ctx, projectID)

	c.JSON(http.StatusCreated, group)
}

// handleGroupGet returns the group, its tasks in order, and the parent
// project, which is everything the board view needs for one table.
func handleGroupGet(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "groupid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	group, project, err := requireGroup(ctx, groupID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}

	tasks, err := ListTasksByGroup(ctx, groupID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"group":   group,
		"tasks":   tasks,
		"project": project,
	})
}

// handleGroupUpdate mutates group metadata and, when a field list is
// supplied, replaces the schema through the mutation engine: validation,
// diffing, and an immediate short-id backfill for freshly added id-typed
// columns.
func handleGroupUpdate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "groupid")
	if !ok {
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	ctx := c.Request.Context()
	group, project, err := requireGroup(ctx, groupID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if err := UpdateGroupMeta(ctx, groupID, req); err != nil {
		writeError(c, err)

		return
	}

	if req.Fields != nil {
		if err := applyFieldMutation(ctx, p, group, req.Fields); err != nil {
			writeError(c, err)

			return
		}
	}

	updated, err := GetGroup(ctx, groupID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, updated)
}

func applyFieldMutation(ctx context.Context, p authmw.Principal, group *TaskGroup, fields []schema.FieldDefinition) error {
	if err := schema.ValidateFields(fields); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	plan := schema.Diff(group.Fields, fields)

	if err := UpdateGroupFields(ctx, group.GroupID, fields); err != nil {
		return err
	}

	if len(plan.OrphanedKeys) > 0 {
		// orphaned task data is retained on purpose; removing a field
		// must stay undoable
		log.Printf("group %d: keys orphaned by field removal: %v", group.GroupID, plan.OrphanedKeys)
	}

	filled, err := BackfillGroupShortIDs(ctx, group.GroupID, plan.BackfillKeys)
	if err != nil {
		// the backfill is idempotent; the next field update or a retry
		// fills whatever this pass missed
		log.Printf("group %d: backfill stopped after %d tasks: %v", group.GroupID, filled, err)

		return err
	}
	if filled > 0 {
		log.Printf("group %d: backfilled short ids on %d tasks for %s", group.GroupID, filled, p.ID)
	}

	return nil
}

func handleGroupDelete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "groupid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	group, project, err := requireGroup(ctx, groupID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	// tasks cascade with the group
	if err := DeleteGroup(ctx, groupID); err != nil {
		writeError(c, err)

		return
	}

	touchProject(ctx, group.ProjectID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
