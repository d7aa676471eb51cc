package solution

import (
	"fmt"
	"sort"
	"strings"
)

// ChangeType is the kind of a solution change. The declared order is the
// primary sort key of change lists.
type ChangeType int

const (
	ChangeAdd ChangeType = iota
	ChangeRemove
	ChangeEdit
	ChangeMove
)

func (c ChangeType) String() string {
	switch c {
	case ChangeAdd:
		return "Add"
	case ChangeRemove:
		return "Remove"
	case ChangeEdit:
		return "Edit"
	case ChangeMove:
		return "Move"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(c))
	}
}

// ObjectType is the kind of object a change applies to.
type ObjectType int

const (
	ObjectFile ObjectType = iota
	ObjectProject
	ObjectFolder
	ObjectProjectContext
	ObjectConfigurationPlatform
	ObjectSharedProject
)

func (o ObjectType) String() string {
	switch o {
	case ObjectFile:
		return "File"
	case ObjectProject:
		return "Project"
	case ObjectFolder:
		return "Folder"
	case ObjectProjectContext:
		return "ProjectContext"
	case ObjectConfigurationPlatform:
		return "ConfigurationPlatform"
	case ObjectSharedProject:
		return "SharedProject"
	default:
		return fmt.Sprintf("ObjectType(%d)", int(o))
	}
}

// Change is an immutable diff record between two versions of a solution.
type Change struct {
	Type       ChangeType
	ObjectType ObjectType
	ObjectName string

	// Target is set for moves and context changes; HasTarget tells whether it is
	TargetType ObjectType
	TargetName string
	HasTarget  bool
}

// NewChange creates a change without target.
func NewChange(changeType ChangeType, objectType ObjectType, objectName string) Change {
	return Change{Type: changeType, ObjectType: objectType, ObjectName: objectName}
}

// NewTargetedChange creates a change with a target object.
func NewTargetedChange(changeType ChangeType, objectType ObjectType, objectName string, targetType ObjectType, targetName string) Change {
	return Change{
		Type:       changeType,
		ObjectType: objectType,
		ObjectName: objectName,
		TargetType: targetType,
		TargetName: targetName,
		HasTarget:  true,
	}
}

// Compare orders changes by type, object type, then object name.
func (c Change) Compare(other Change) int {
	if c.Type != other.Type {
		if c.Type < other.Type {
			return -1
		}
		return 1
	}
	if c.ObjectType != other.ObjectType {
		if c.ObjectType < other.ObjectType {
			return -1
		}
		return 1
	}
	if cmp := strings.Compare(c.ObjectName, other.ObjectName); cmp != 0 {
		return cmp
	}
	return strings.Compare(c.TargetName, other.TargetName)
}

func (c Change) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %q", c.Type, c.ObjectType, c.ObjectName)
	if c.HasTarget {
		switch c.Type {
		case ChangeAdd:
			sb.WriteString(" to ")
		case ChangeRemove:
			sb.WriteString(" from ")
		case ChangeMove:
			sb.WriteString(" to ")
		default:
			sb.WriteString(" in ")
		}
		fmt.Fprintf(&sb, "%s %q", c.TargetType, c.TargetName)
	}
	return sb.String()
}

// SortChanges sorts changes in place by the total order of Compare.
func SortChanges(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Compare(changes[j]) < 0
	})
}
