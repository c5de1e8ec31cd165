package source

import "net/url"

// RefKind distinguishes the ways a git revision can be selected.
type RefKind int

const (
	RefDefaultBranch RefKind = iota
	RefBranch
	RefTag
	RefRev
)

// GitReference selects a revision of a git source.
type GitReference struct {
	Kind RefKind
	Name string
}

// DefaultBranch returns the reference to the remote's default branch.
func DefaultBranch() GitReference { return GitReference{Kind: RefDefaultBranch} }

// Branch returns a branch reference.
func Branch(name string) GitReference { return GitReference{Kind: RefBranch, Name: name} }

// Tag returns a tag reference.
func Tag(name string) GitReference { return GitReference{Kind: RefTag, Name: name} }

// Rev returns a revision reference.
func Rev(name string) GitReference { return GitReference{Kind: RefRev, Name: name} }

// String returns a human readable form such as `branch=main`.
func (r GitReference) String() string {
	if r.Kind == RefDefaultBranch {
		return "default branch"
	}
	return r.query()
}

func (r GitReference) query() string {
	var key string
	switch r.Kind {
	case RefBranch:
		key = "branch"
	case RefTag:
		key = "tag"
	case RefRev:
		key = "rev"
	default:
		return ""
	}
	return key + "=" + url.QueryEscape(r.Name)
}
