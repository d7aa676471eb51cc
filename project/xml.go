package project

import "encoding/xml"

// RootElement represents the root <Project> element of an MSBuild project file.
type RootElement struct {
	XMLName        xml.Name        `xml:"Project"`
	Sdk            string          `xml:"Sdk,attr,omitempty"`
	SdkElements    []SdkElement    `xml:"Sdk"`
	PropertyGroups []PropertyGroup `xml:"PropertyGroup"`
	ItemGroups     []ItemGroup     `xml:"ItemGroup"`
	Imports        []Import        `xml:"Import"`
	ImportGroups   []ImportGroup   `xml:"ImportGroup"`
}

// SdkElement represents a <Sdk Name="..."/> element.
type SdkElement struct {
	Name string `xml:"Name,attr"`
}

// PropertyGroup represents a <PropertyGroup> element.
type PropertyGroup struct {
	Condition      string `xml:"Condition,attr,omitempty"`
	Label          string `xml:"Label,attr,omitempty"`
	Configurations string `xml:"Configurations,omitempty"`
	Platforms      string `xml:"Platforms,omitempty"`
	Configuration  string `xml:"Configuration,omitempty"`
	Platform       string `xml:"Platform,omitempty"`
	OutputType     string `xml:"OutputType,omitempty"`
	ProjectGUID    string `xml:"ProjectGuid,omitempty"`
}

// ItemGroup represents an <ItemGroup> element.
type ItemGroup struct {
	Condition             string                 `xml:"Condition,attr,omitempty"`
	Label                 string                 `xml:"Label,attr,omitempty"`
	ProjectReferences     []ProjectReference     `xml:"ProjectReference,omitempty"`
	ProjectConfigurations []ProjectConfiguration `xml:"ProjectConfiguration,omitempty"`
}

// ProjectReference represents a <ProjectReference> element.
type ProjectReference struct {
	Include string `xml:"Include,attr"`
}

// ProjectConfiguration represents a C++ <ProjectConfiguration Include="Debug|Win32"> item.
type ProjectConfiguration struct {
	Include       string `xml:"Include,attr"`
	Configuration string `xml:"Configuration,omitempty"`
	Platform      string `xml:"Platform,omitempty"`
}

// Import represents an <Import> element.
type Import struct {
	Project   string `xml:"Project,attr"`
	Label     string `xml:"Label,attr,omitempty"`
	Sdk       string `xml:"Sdk,attr,omitempty"`
	Condition string `xml:"Condition,attr,omitempty"`
}

// ImportGroup represents an <ImportGroup> element.
type ImportGroup struct {
	Label   string   `xml:"Label,attr,omitempty"`
	Imports []Import `xml:"Import"`
}

// IsSDKStyle returns true if this is an SDK-style project.
func (r *RootElement) IsSDKStyle() bool {
	if r.Sdk != "" || len(r.SdkElements) > 0 {
		return true
	}
	for _, imp := range r.Imports {
		if imp.Sdk != "" {
			return true
		}
	}
	return false
}

// AllImports returns the top-level imports followed by the grouped ones.
func (r *RootElement) AllImports() []Import {
	imports := append([]Import(nil), r.Imports...)
	for _, group := range r.ImportGroups {
		for _, imp := range group.Imports {
			if imp.Label == "" {
				imp.Label = group.Label
			}
			imports = append(imports, imp)
		}
	}
	return imports
}
