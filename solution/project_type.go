package solution

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ProjectType identifies the kind of a solution entry.
type ProjectType int

// Known project kinds.
const (
	ProjectTypeUnknown ProjectType = iota
	ProjectTypeFolder
	ProjectTypeCSharp
	ProjectTypeCSharpSDK
	ProjectTypeVisualBasic
	ProjectTypeVisualBasicSDK
	ProjectTypeFSharp
	ProjectTypeFSharpSDK
	ProjectTypeCpp
	ProjectTypeShared
	ProjectTypeSQL
	ProjectTypeWAP
	ProjectTypeDocker
	ProjectTypePython
	ProjectTypeNodeJS
)

type projectTypeInfo struct {
	name       string
	guid       uuid.UUID
	extensions []string
}

var projectTypes = map[ProjectType]projectTypeInfo{
	ProjectTypeFolder:         {"folder", uuid.MustParse("2150E333-8FDC-42A3-9474-1A3956D46DE8"), nil},
	ProjectTypeCSharp:         {"csharp", uuid.MustParse("FAE04EC0-301F-11D3-BF4B-00C04F79EFBC"), nil},
	ProjectTypeCSharpSDK:      {"csharp-sdk", uuid.MustParse("9A19103F-16F7-4668-BE54-9A1E7A4F7556"), []string{".csproj"}},
	ProjectTypeVisualBasic:    {"vb", uuid.MustParse("F184B08F-C81C-45F6-A57F-5ABD9991F28F"), nil},
	ProjectTypeVisualBasicSDK: {"vb-sdk", uuid.MustParse("778DAE3C-4631-46EA-AA77-85C1314464D9"), []string{".vbproj"}},
	ProjectTypeFSharp:         {"fsharp", uuid.MustParse("F2A71F9B-5D33-465A-A702-920D77279786"), nil},
	ProjectTypeFSharpSDK:      {"fsharp-sdk", uuid.MustParse("6EC3EE1D-3C4E-46DD-8F32-0CC8E7565705"), []string{".fsproj"}},
	ProjectTypeCpp:            {"cpp", uuid.MustParse("8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942"), []string{".vcxproj"}},
	ProjectTypeShared:         {"shared", uuid.MustParse("D954291E-2A0B-460D-934E-DC6B0785DB48"), []string{".shproj"}},
	ProjectTypeSQL:            {"sql", uuid.MustParse("00D1A9C2-B5F0-4AF3-8072-F6C62B433612"), []string{".sqlproj"}},
	ProjectTypeWAP:            {"wap", uuid.MustParse("C7167F0D-BC9F-4E6E-AFE1-012C56B48DB5"), []string{".wapproj"}},
	ProjectTypeDocker:         {"docker", uuid.MustParse("E53339B2-1760-4266-BCC7-CA923CBCF16C"), []string{".dcproj"}},
	ProjectTypePython:         {"python", uuid.MustParse("888888A0-9F3D-457C-B088-3A5042F75D52"), []string{".pyproj"}},
	ProjectTypeNodeJS:         {"nodejs", uuid.MustParse("9092AA53-FB77-4645-B42D-1CCCA6BD08BD"), []string{".njsproj"}},
}

// String returns the short name used in configuration files.
func (t ProjectType) String() string {
	if info, ok := projectTypes[t]; ok {
		return info.name
	}
	return "unknown"
}

// GUID returns the type GUID written in solution files, or uuid.Nil for
// unknown kinds.
func (t ProjectType) GUID() uuid.UUID {
	return projectTypes[t].guid
}

// ParseProjectType resolves a short name such as "csharp-sdk".
func ParseProjectType(name string) (ProjectType, bool) {
	for t, info := range projectTypes {
		if strings.EqualFold(info.name, name) {
			return t, true
		}
	}
	return ProjectTypeUnknown, false
}

// ProjectTypeFromGUID resolves a solution type GUID.
func ProjectTypeFromGUID(guid uuid.UUID) ProjectType {
	for t, info := range projectTypes {
		if info.guid == guid {
			return t
		}
	}
	return ProjectTypeUnknown
}

// ProjectTypeFromPath resolves the kind of a project file from its extension.
// Classic and SDK-style projects share an extension; the SDK GUID is used.
func ProjectTypeFromPath(path string) ProjectType {
	ext := strings.ToLower(filepath.Ext(path))
	for t, info := range projectTypes {
		for _, e := range info.extensions {
			if e == ext {
				return t
			}
		}
	}
	return ProjectTypeUnknown
}

// ProjectExtensions lists every known project file extension.
func ProjectExtensions() []string {
	var exts []string
	for _, info := range projectTypes {
		exts = append(exts, info.extensions...)
	}
	return exts
}

// IsProjectFile checks if a file path has a known project file extension
func IsProjectFile(path string) bool {
	return ProjectTypeFromPath(path) != ProjectTypeUnknown
}
