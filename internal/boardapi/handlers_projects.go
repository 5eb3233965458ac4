package boardapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskgrid/internal/authmw"
	"taskgrid/internal/utils"
)

func mustPrincipal(c *gin.Context) (authmw.Principal, bool) {
	p, ok := authmw.CurrentPrincipal(c)
	if !ok {
		writeError(c, ErrUnauthenticated)

		return authmw.Principal{}, false
	}

	return p, true
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		writeError(c, fmt.Errorf("%w: missing/invalid %s", ErrValidation, name))

		return 0, false
	}

	return id, true
}

func handleProjectList(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	projects, err := ListProjectsForUser(c.Request.Context(), p.ID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, projects)
}

func handleProjectCreate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	id, err := CreateProject(c.Request.Context(), p.ID, req)
	if err != nil {
		writeError(c, err)

		return
	}

	project, err := GetProject(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusCreated, project)
}

func handleProjectGet(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, project)
}

// handleProjectUpdate changes name/description and the project-level flat
// schema; owner only.
func handleProjectUpdate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !isOwner(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if err := UpdateProject(c.Request.Context(), projectID, req); err != nil {
		writeError(c, err)

		return
	}

	updated, err := GetProject(c.Request.Context(), projectID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, updated)
}

func handleProjectDelete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !isOwner(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}

	if err := DeleteProject(c.Request.Context(), projectID); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleProjectLeave(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if isOwner(project, p.ID) {
		writeError(c, fmt.Errorf("%w: owner cannot leave, delete the project instead", ErrValidation))

		return
	}

	if err := RemoveProjectMember(c.Request.Context(), projectID, p.ID); err != nil {
		writeError(c, err)

		return
	}

	membershipNotifier.Notify(MembershipEvent{ProjectID: projectID, UserID: p.ID})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleBoard serves the whole board in one shot: project, ordered groups,
// ordered tasks.
func handleBoard(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	project, err := requireProject(ctx, projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}

	groups, err := ListGroups(ctx, projectID)
	if err != nil {
		writeError(c, err)

		return
	}

	tasks, err := ListTasksByProject(ctx, projectID)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{
		"project": project,
		"groups":  groups,
		"tasks":   tasks,
	})
}

// handleMemberList returns the member roster, owner first, enriched from
// the user directory.
func handleMemberList(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	project, err := requireProject(ctx, projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}

	// owner leads the listing; drop any duplicate membership row of theirs
	members := append(
		[]Member{{UserID: project.OwnerID, Role: RoleOwner}},
		utils.Filter(project.Members, func(m Member) bool {
			return m.UserID != project.OwnerID
		})...,
	)

	ids := utils.Map(members, func(m Member) string { return m.UserID })
	directory, err := kc.UsersByIDs(ctx, ids)
	if err != nil {
		writeError(c, err)

		return
	}

	infos := utils.Map(members, func(m Member) MemberInfo {
		info := MemberInfo{UserID: m.UserID, Role: m.Role}
		if u, found := directory[m.UserID]; found {
			info.Name = u.Name
			info.Email = u.Email
			info.Image = u.Avatar
		}

		return info
	})

	c.JSON(http.StatusOK, infos)
}

func handleMemberRemove(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canManageMembers(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}
	if req.UserID == project.OwnerID {
		writeError(c, fmt.Errorf("%w: cannot remove the owner", ErrValidation))

		return
	}

	if err := RemoveProjectMember(c.Request.Context(), projectID, req.UserID); err != nil {
		writeError(c, err)

		return
	}

	membershipNotifier.Notify(MembershipEvent{ProjectID: projectID, UserID: req.UserID})

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleMemberRole(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req MemberRequest
	if err := c.ShouldBind(&req); err != nil || req.Role == "" {
		writeError(c, fmt.Errorf("%w: userId and role required", ErrValidation))

		return
	}

	project, err := requireProject(c.Request.Context(), projectID, p.ID)
	if err != nil {
		writeError(c, err)

		return
	}
	if !canManageMembers(project, p.ID) {
		writeError(c, ErrForbidden)

		return
	}
	if req.UserID == project.OwnerID {
		writeError(c, fmt.Errorf("%w: owner role is fixed", ErrValidation))

		return
	}

	if err := SetProjectMemberRole(c.Request.Context(), projectID, req.UserID, req.Role); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
