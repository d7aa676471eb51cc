package config

import (
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// Starter returns the source of a starter configuration for a solution
// named name. Projects are grouped by directory and the matrix is derived
// from the projects.
func Starter(name string) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("solution_name", cty.StringVal(name))
	body.SetAttributeValue("collapse_folders_with_unique_subfolder", cty.True)
	body.AppendNewline()

	root := body.AppendNewBlock("root", nil).Body()

	files := root.AppendNewBlock("folder", []string{"Solution Items"}).Body().AppendNewBlock("files", nil).Body()
	files.SetAttributeValue("path", cty.StringVal("*.md"))

	projects := root.AppendNewBlock("projects", nil).Body()
	projects.SetAttributeValue("path", cty.StringVal("**/"))
	projects.SetAttributeValue("create_folders", cty.True)
	projects.AppendNewline()
	where := projects.AppendNewBlock("where", nil).Body()
	where.AppendNewBlock("not", nil).Body().SetAttributeValue("path", cty.StringVal("**/*Tests*/**"))

	tests := root.AppendNewBlock("folder", []string{"Tests"}).Body().AppendNewBlock("projects", nil).Body()
	tests.SetAttributeValue("path", cty.StringVal("**/*Tests*/**"))
	body.AppendNewline()

	matrix := body.AppendNewBlock("configuration_platforms", nil).Body()
	matrix.SetAttributeValue("from_projects", cty.True)

	return f.Bytes()
}
