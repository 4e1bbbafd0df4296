package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNodeNotFound        = errors.New("canvas: node not found")
	ErrPortNotFound        = errors.New("canvas: port not found")
	ErrSelfLoop            = errors.New("canvas: connection source and target are the same node")
	ErrIncompatiblePorts   = errors.New("canvas: incompatible port types")
	ErrDuplicateConnection = errors.New("canvas: connection already exists")
	ErrDanglingConnection  = errors.New("canvas: connection references a missing node or port")
	ErrDuplicateID         = errors.New("canvas: duplicate id")
	ErrProjectNotFound     = errors.New("canvas: project not found")
)

// ProjectType is the kind of program a project builds.
type ProjectType string

const (
	ProjectToken      ProjectType = "token"
	ProjectNFT        ProjectType = "nft"
	ProjectGovernance ProjectType = "governance"
	ProjectCustom     ProjectType = "custom"
)

// ProjectStatus is the deployment state of a project.
type ProjectStatus string

const (
	StatusDraft    ProjectStatus = "draft"
	StatusDeployed ProjectStatus = "deployed"
	StatusError    ProjectStatus = "error"
)

// Network is the chain cluster a project targets.
type Network string

const (
	Devnet  Network = "devnet"
	Mainnet Network = "mainnet"
)

// Project is a saved editor document. Data holds the encoded Graph; the
// store treats it as opaque.
type Project struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        ProjectType     `json:"type"`
	Status      ProjectStatus   `json:"status"`
	Network     Network         `json:"network"`
	Data        json.RawMessage `json:"project_data,omitempty"`
	IsArchived  bool            `json:"is_archived"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProjectUpdate carries the fields to change on a project. Nil fields are
// left as they are.
type ProjectUpdate struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Type        *ProjectType    `json:"type,omitempty"`
	Status      *ProjectStatus  `json:"status,omitempty"`
	Network     *Network        `json:"network,omitempty"`
	Data        json.RawMessage `json:"project_data,omitempty"`
}

// ProjectStore defines the contract for persisting projects.
type ProjectStore interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Projects
	CreateProject(ctx context.Context, p *Project) (*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context, userID string) ([]Project, error)
	UpdateProject(ctx context.Context, id string, u ProjectUpdate) (*Project, error)
	DuplicateProject(ctx context.Context, id, userID string) (*Project, error)
	ArchiveProject(ctx context.Context, id string) (*Project, error)
	DeleteProject(ctx context.Context, id string) error
}
