package boardapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/schema"
)

// validatePayload shape-checks the supplied values against the group's
// current field list. Keys with no matching field pass through untouched,
// which is what keeps orphaned data writable after a field removal.
func validatePayload(fields []schema.FieldDefinition, data schema.Payload) error {
	for key, val := range data {
		f := schema.FieldByKey(fields, key)
		if f == nil {
			continue
		}
		if err := schema.CheckValue(*f, val); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrValidation, key, err)
		}
	}

	return nil
}

// fillShortIDs populates every id/user-typed field the caller left empty
// with a freshly drawn short code.
func fillShortIDs(ctx context.Context, group *TaskGroup, data schema.Payload) (schema.Payload, error) {
	if data == nil {
		data = schema.Payload{}
	}

	missing := schema.MissingShortIDs(data, schema.ShortIDFields(group.Fields))
	if len(missing) == 0 {
		return data, nil
	}

	codes, err := NextShortIDs(ctx, group.GroupID, len(missing))
	if err != nil {
		return nil, err
	}
	for i, key := range missing {
		data[key] = schema.String(codes[i])
	}

	return data, nil
}

func handleTaskCreate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	ctx := c.Request.Context()
	group, project, err := requireGroup(ctx, req.GroupID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if err := validatePayload(group.Fields, req.Data); err != nil {
		writeError(c, err)

		return
	}

	data, err := fillShortIDs(ctx, group, req.Data)
	if err != nil {
		writeError(c, err)

		return
	}

	task, err := CreateTask(ctx, group.ProjectID, group.GroupID, p.ID, req.AssignedTo, data)
	if err != nil {
		writeError(c, err)

		return
	}

	touchProject(ctx, group.ProjectID)

	c.JSON(http.StatusCreated, task)
}

func handleTaskGet(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	task, err := GetTask(ctx, taskID)
	if err != nil {
		writeError(c, err)

		return
	}
	if _, err := requireProject(ctx, task.ProjectID, p.ID); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, task)
}

// handleTaskUpdate merges a partial payload into the task. Only the keys
// supplied change; a null value clears its cell.
func handleTaskUpdate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskid")
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	ctx := c.Request.Context()
	task, err := GetTask(ctx, taskID)
	if err != nil {
		writeError(c, err)

		return
	}
	project, err := requireProject(ctx, task.ProjectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if task.GroupID != 0 {
		group, err := GetGroup(ctx, task.GroupID)
		if err != nil {
			writeError(c, err)

			return
		}
		if err := validatePayload(group.Fields, req.Data); err != nil {
			writeError(c, err)

			return
		}
	}

	updated, err := PatchTaskData(ctx, taskID, req.Data)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, updated)
}

func handleTaskDelete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "taskid")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	task, err := GetTask(ctx, taskID)
	if err != nil {
		writeError(c, err)

		return
	}
	project, err := requireProject(ctx, task.ProjectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canEdit(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if err := DeleteTask(ctx, taskID); err != nil {
		writeError(c, err)

		return
	}

	touchProject(ctx, task.ProjectID)

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleTaskList(c *gin.Context) {
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

	tasks, err := ListTasksByProject(ctx, projectID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, tasks)
}

// handleTaskReorder applies a batch of order/group moves inside one
// project. Items apply independently; the response reports how many stuck
// and which ones did not, so a drag-drop client can reconcile instead of
// retrying the whole batch.
func handleTaskReorder(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req ReorderRequest
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

	applied, failures := ReorderTasks(ctx, projectID, req.Items)
	if applied > 0 {
		touchProject(ctx, projectID)
	}

	status := http.StatusOK
	if applied == 0 && len(failures) > 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"applied":  applied,
		"failures": failures,
	})
}
