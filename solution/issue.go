package solution

import "fmt"

// IssueLevel is the severity of an Issue.
type IssueLevel int

const (
	// IssueWarning does not prevent a solution from being written
	IssueWarning IssueLevel = iota
	// IssueError blocks applying the solution to disk
	IssueError
)

func (l IssueLevel) String() string {
	if l == IssueError {
		return "Error"
	}
	return "Warning"
}

// Issue is a recoverable problem found while building, ingesting or
// updating a solution.
type Issue struct {
	Level   IssueLevel
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s", i.Level, i.Message)
}

// Warningf creates a warning issue.
func Warningf(format string, args ...any) Issue {
	return Issue{Level: IssueWarning, Message: fmt.Sprintf(format, args...)}
}

// Errorf creates an error issue.
func Errorf(format string, args ...any) Issue {
	return Issue{Level: IssueError, Message: fmt.Sprintf(format, args...)}
}

// Issues is an accumulated list of issues.
type Issues []Issue

// HasErrors reports whether any issue has the Error level.
func (is Issues) HasErrors() bool {
	for _, issue := range is {
		if issue.Level == IssueError {
			return true
		}
	}
	return false
}

// Errors returns the Error level issues.
func (is Issues) Errors() Issues {
	var errs Issues
	for _, issue := range is {
		if issue.Level == IssueError {
			errs = append(errs, issue)
		}
	}
	return errs
}
