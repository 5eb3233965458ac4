package boardapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/schema"
)

// ImportResult reports the outcome for one imported group.
type ImportResult struct {
	GroupName string `json:"groupName"`
	GroupID   int64  `json:"groupid,omitempty"`
	Tasks     int    `json:"tasks"`
	Error     string `json:"error,omitempty"`
}

// handleImport bulk-creates groups with their schemas and seed rows from a
// tabular export. The body is either a single descriptor object or an array
// of them. Descriptors are processed independently: one failing group does
// not abort the rest, and a row failure aborts only its own group.
func handleImport(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 8<<20))
	if err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	descriptors, err := decodeDescriptors(body)
	if err != nil {
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

	results := make([]ImportResult, 0, len(descriptors))
	errs := []string{}
	succeeded := 0
	for _, d := range descriptors {
		res := importGroup(ctx, projectID, p.ID, d)
		if res.Error == "" {
			succeeded++
		} else {
			errs = append(errs, fmt.Sprintf("%s: %s", res.GroupName, res.Error))
		}
		results = append(results, res)
	}

	if succeeded > 0 {
		touchProject(ctx, projectID)
	}

	status := http.StatusCreated
	if succeeded == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{
		"totalGroups": len(descriptors),
		"successful":  succeeded,
		"failed":      len(descriptors) - succeeded,
		"results":     results,
		"errors":      errs,
	})
}

// decodeDescriptors accepts either one descriptor or an array of them.
func decodeDescriptors(body []byte) ([]schema.GroupDescriptor, error) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty body")
	}

	if trimmed[0] == '[' {
		var many []schema.GroupDescriptor
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return nil, err
		}
		if len(many) == 0 {
			return nil, fmt.Errorf("empty descriptor list")
		}

		return many, nil
	}

	var one schema.GroupDescriptor
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}

	return []schema.GroupDescriptor{one}, nil
}

// importGroup creates one group with its schema and seeds its rows. The
// group is created first so partial row failures leave an inspectable
// board rather than nothing.
func importGroup(ctx context.Context, projectID int64, creatorID string, d schema.GroupDescriptor) ImportResult {
	res := ImportResult{GroupName: d.GroupName}

	if err := d.Validate(); err != nil {
		res.Error = err.Error()

		return res
	}

	fields, err := schema.BuildFields(d.GroupFields)
	if err != nil {
		res.Error = err.Error()

		return res
	}

	groupID, err := CreateGroup(ctx, projectID, creatorID, CreateGroupRequest{Name: d.GroupName}, fields)
	if err != nil {
		res.Error = err.Error()

		return res
	}
	res.GroupID = groupID

	for i, row := range d.GroupValues {
		data := schema.MapRow(fields, row, func() string {
			codes, genErr := NextShortIDs(ctx, groupID, 1)
			if genErr != nil || len(codes) == 0 {
				return ""
			}

			return codes[0]
		})

		if _, err := CreateTask(ctx, projectID, groupID, creatorID, "", data); err != nil {
			res.Error = fmt.Sprintf("row %d: %v", i+1, err)

			return res
		}
		res.Tasks++
	}

	return res
}
