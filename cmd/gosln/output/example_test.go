package output_test

import (
	"os"

	"github.com/willibrandon/gosln/cmd/gosln/output"
	"github.com/willibrandon/gosln/solution"
)

func ExampleConsole_Changes() {
	c := output.NewConsole(os.Stdout, os.Stderr, output.VerbosityNormal)
	c.SetColors(false)

	c.Info("Changes to All.sln:")
	c.Changes([]solution.Change{
		solution.NewChange(solution.ChangeAdd, solution.ObjectProject, "src/App/App.csproj"),
		solution.NewChange(solution.ChangeRemove, solution.ObjectFile, "NOTES.md"),
	})
	c.Warning("project %s has no configurations", "src/App/App.csproj")
	c.Detail("not shown at normal verbosity")

	// Output:
	// Changes to All.sln:
	//   Add Project "src/App/App.csproj"
	//   Remove File "NOTES.md"
	// Warning: project src/App/App.csproj has no configurations
}

func ExampleConsole_SetVerbosity() {
	c := output.NewConsole(os.Stdout, os.Stderr, output.VerbosityQuiet)
	c.SetColors(false)
	c.Success("All.sln is up to date")

	c.SetVerbosity(output.VerbosityDetailed)
	c.Detail("    src/App/App.csproj")

	// Output:
	//     src/App/App.csproj
}
