package solution

import (
	"github.com/google/uuid"
)

// Project is the metadata of one project referenced by a solution.
// Values read from a project reader are shared through a cache, so a Project
// placed in a tree must be a copy owned by that position (see Copy).
type Project struct {
	// Type is the nominal project kind
	Type ProjectType

	// TypeGUID is the raw solution type GUID, used when Type is unknown
	TypeGUID uuid.UUID

	// Configurations lists the project-side configuration names in declared order
	Configurations []string

	// Platforms lists the project-side platform names in declared order
	Platforms []string

	// Dependencies lists referenced project paths, relative to the solution directory
	Dependencies []string

	// SharedImports lists shared item files (.projitems) imported by the project,
	// relative to the solution directory
	SharedImports []string

	CanBuild     bool
	CanDeploy    bool
	AlwaysDeploy bool

	// NoPlatform marks project kinds that ignore the platform dimension
	NoPlatform bool
}

// TypeID returns the GUID identifying the project kind in solution files.
func (p *Project) TypeID() uuid.UUID {
	if guid := p.Type.GUID(); guid != uuid.Nil {
		return guid
	}
	return p.TypeGUID
}

// Copy returns a deep copy of p.
func (p *Project) Copy() *Project {
	c := *p
	c.Configurations = append([]string(nil), p.Configurations...)
	c.Platforms = append([]string(nil), p.Platforms...)
	c.Dependencies = append([]string(nil), p.Dependencies...)
	c.SharedImports = append([]string(nil), p.SharedImports...)
	return &c
}

func (p *Project) reRoot(oldDir, newDir string) {
	for i, dep := range p.Dependencies {
		p.Dependencies[i] = ReRoot(dep, oldDir, newDir)
	}
	for i, imp := range p.SharedImports {
		p.SharedImports[i] = ReRoot(imp, oldDir, newDir)
	}
}
