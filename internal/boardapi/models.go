package boardapi

import (
	"time"

	"taskgrid/internal/schema"
)

// Roles a principal can hold on a project or group.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type Member struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// MemberInfo is a Member enriched with directory details for listings.
type MemberInfo struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Image  string `json:"image,omitempty"`
}

type Project struct {
	ProjectID   int64  `json:"projectid"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OwnerID     string `json:"ownerId"`

	// Fields is the project-level flat-table schema, independent of the
	// per-group field lists.
	Fields  []schema.FieldDefinition `json:"fields"`
	Members []Member                 `json:"members"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TaskGroup struct {
	GroupID     int64   `json:"groupid"`
	ProjectID   int64   `json:"projectid"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Order       float64 `json:"order"`
	Icon        string  `json:"icon"`
	Color       string  `json:"color"`
	CreatorID   string  `json:"userId"`

	Fields  []schema.FieldDefinition `json:"fields"`
	Members []Member                 `json:"members,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is the fixed envelope plus the schemaless per-group payload.
type Task struct {
	TaskID     int64   `json:"taskid"`
	ProjectID  int64   `json:"projectid"`
	GroupID    int64   `json:"groupid,omitempty"`
	Order      float64 `json:"order"`
	CreatorID  string  `json:"userId"`
	AssignedTo string  `json:"assignedTo,omitempty"`

	Data schema.Payload `json:"data"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusExpired  = "expired"
)

type Invitation struct {
	InvitationID int64     `json:"invitationid"`
	Email        string    `json:"email"`
	ProjectID    int64     `json:"projectid"`
	GroupID      *int64    `json:"groupid,omitempty"`
	InviterID    string    `json:"inviterId"`
	Role         string    `json:"role"`
	Token        string    `json:"token"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expiresAt"`
	CreatedAt    time.Time `json:"created_at"`

	// Populated on listings only.
	ProjectName string `json:"projectName,omitempty"`
	GroupName   string `json:"groupName,omitempty"`
}

// Expired derives expiry from the timestamp instead of trusting the stored
// status; there is no background sweep flipping rows over.
func (inv Invitation) Expired(now time.Time) bool {
	return !now.Before(inv.ExpiresAt)
}

// --- request shapes ---

type CreateProjectRequest struct {
	Name        string `json:"name" form:"name" binding:"max=120"`
	Description string `json:"description" form:"description" binding:"max=2000"`
}

type UpdateProjectRequest struct {
	Name        *string                  `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string                  `json:"description" binding:"omitempty,max=2000"`
	Fields      []schema.FieldDefinition `json:"fields"`
}

type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=2000"`
	Icon        string `json:"icon" binding:"max=64"`
	Color       string `json:"color" binding:"max=64"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Icon        *string `json:"icon" binding:"omitempty,max=64"`
	Color       *string `json:"color" binding:"omitempty,max=64"`

	// Fields, when present, replaces the group's field list wholesale and
	// runs through the schema mutation engine.
	Fields []schema.FieldDefinition `json:"fields"`
}

type CreateTaskRequest struct {
	GroupID    int64          `json:"groupid" binding:"required,gt=0"`
	AssignedTo string         `json:"assignedTo" binding:"max=128"`
	Data       schema.Payload `json:"data"`
}

// UpdateTaskRequest carries a partial payload update: only the supplied
// keys change, one or many at a time.
type UpdateTaskRequest struct {
	Data schema.Payload `json:"data" binding:"required"`
}

type ReorderItem struct {
	TaskID  int64   `json:"taskid" binding:"required,gt=0"`
	Order   float64 `json:"order"`
	GroupID int64   `json:"groupid" binding:"required,gt=0"`
}

type ReorderRequest struct {
	Items []ReorderItem `json:"items" binding:"required,min=1,dive"`
}

type InviteRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Role    string `json:"role" binding:"omitempty,oneof=admin editor viewer"`
	GroupID *int64 `json:"groupid"`
}

type RevokeInviteRequest struct {
	InvitationID int64 `json:"invitationid" binding:"required,gt=0"`
}

type MemberRequest struct {
	UserID string `json:"userId" binding:"required"`
	Role   string `json:"role" binding:"omitempty,oneof=admin editor viewer"`
}

type ProfileUpdateRequest struct {
	Name  string `json:"name" binding:"max=128"`
	Image string `json:"image" binding:"omitempty,url,max=512"`
}

// defaultProjectFields is the starter flat-table schema every new project
// gets, mirroring what the dashboard table expects out of the box.
func defaultProjectFields() []schema.FieldDefinition {
	return []schema.FieldDefinition{
		{
			ID:       schema.NewFieldID(),
			Key:      "title",
			Label:    "Task Name",
			Type:     schema.TypeText,
			Required: true,
			Width:    300,
		},
		{
			ID:    schema.NewFieldID(),
			Key:   "status",
			Label: "Status",
			Type:  schema.TypeStatus,
			Width: 140,
			Options: []schema.SelectOption{
				{ID: schema.NewFieldID(), Label: "Todo", Color: schema.ColorPalette[0]},
				{ID: schema.NewFieldID(), Label: "In Progress", Color: schema.ColorPalette[3]},
				{ID: schema.NewFieldID(), Label: "Done", Color: schema.ColorPalette[2]},
			},
		},
		{
			ID:    schema.NewFieldID(),
			Key:   "priority",
			Label: "Priority",
			Type:  schema.TypeSelect,
			Width: 120,
			Options: []schema.SelectOption{
				{ID: schema.NewFieldID(), Label: "Low", Color: schema.ColorPalette[1]},
				{ID: schema.NewFieldID(), Label: "Medium", Color: schema.ColorPalette[3]},
				{ID: schema.NewFieldID(), Label: "High", Color: schema.ColorPalette[4]},
			},
		},
	}
}
