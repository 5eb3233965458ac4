package boardapi

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxAvatarBytes = 2 << 20

// handleMe returns the caller's directory profile.
func handleMe(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	users, err := kc.UsersByIDs(c.Request.Context(), []string{p.ID})
	if err != nil {
		writeError(c, err)

		return
	}

	u, found := users[p.ID]
	if !found {
		writeError(c, ErrNotFound)

		return
	}

	c.JSON(http.StatusOK, u)
}

// handleMeUpdate pushes display-name/avatar changes to the user directory.
func handleMeUpdate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBind(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", ErrValidation, err))

		return
	}
	if req.Name == "" && req.Image == "" {
		writeError(c, fmt.Errorf("%w: nothing to update", ErrValidation))

		return
	}

	if err := kc.UpdateProfile(c.Request.Context(), p.ID, strings.TrimSpace(req.Name), req.Image); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleAvatarUpload stores a profile image in the object store and points
// the directory profile at it. The size is checked before any bytes move.
func handleAvatarUpload(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, fmt.Errorf("%w: file is required", ErrValidation))

		return
	}
	if fileHeader.Size > maxAvatarBytes {
		writeError(c, fmt.Errorf("%w: image exceeds 2MB", ErrValidation))

		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeError(c, fmt.Errorf("%w: only images are accepted", ErrValidation))

		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, err)

		return
	}
	defer f.Close()

	key := fmt.Sprintf("avatars/%s/%s%s", p.ID, uuid.NewString(), filepath.Ext(fileHeader.Filename))

	ctx := c.Request.Context()
	url, err := store.Put(ctx, key, f, fileHeader.Size, contentType)
	if err != nil {
		writeError(c, err)

		return
	}

	if err := kc.UpdateProfile(ctx, p.ID, "", url); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}
