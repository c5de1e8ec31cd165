package workspace

import (
	"github.com/matzehuels/crateman/pkg/errors"
	"github.com/matzehuels/crateman/pkg/surface"
)

// RootConfig is the [workspace] section of a root document.
type RootConfig struct {
	Dir            string             `json:"root"`
	Members        []string           `json:"members,omitempty"`
	DefaultMembers []string           `json:"default_members,omitempty"`
	Exclude        []string           `json:"exclude,omitempty"`
	Metadata       any                `json:"metadata,omitempty"`
	Fields         *InheritableFields `json:"-"`
}

// Linkage describes how a package relates to its workspace.
type Linkage struct {
	// Root is set when the document is itself a workspace root.
	Root *RootConfig
	// RootPath is the explicit `package.workspace` path of a member, relative
	// to the member's directory. Empty means search ancestor directories.
	RootPath string
}

// IsRoot reports whether the document is a workspace root.
func (l Linkage) IsRoot() bool { return l.Root != nil }

// NewRoot builds the root linkage for a document in dir.
func NewRoot(ws *surface.Workspace, dir string) (Linkage, error) {
	fields, err := NewInheritableFields(ws, dir)
	if err != nil {
		return Linkage{}, err
	}
	return Linkage{Root: &RootConfig{
		Dir:            dir,
		Members:        ws.Members,
		DefaultMembers: ws.DefaultMembers,
		Exclude:        ws.Exclude,
		Metadata:       ws.Metadata,
		Fields:         fields,
	}}, nil
}

// LinkageFor determines the linkage of a package document located in dir.
func LinkageFor(m *surface.Manifest, dir string) (Linkage, error) {
	var memberOf *string
	if p := m.PackageSection(); p != nil {
		memberOf = p.Workspace
	}
	switch {
	case m.Workspace != nil && memberOf != nil:
		return Linkage{}, errors.New(errors.ErrCodeFieldConflict,
			"cannot configure both `package.workspace` and `[workspace]`, only one can be specified")
	case m.Workspace != nil:
		return NewRoot(m.Workspace, dir)
	case memberOf != nil:
		return Linkage{RootPath: *memberOf}, nil
	default:
		return Linkage{}, nil
	}
}
