package format

import (
	"fmt"
	"strings"
)

// Validation is the outcome of checking an output path. Warning is empty
// when the extension matches.
type Validation struct {
	Path    string
	Warning string
}

// RecommendedExtension returns the file extension conventionally used for f
func RecommendedExtension(f Format) string {
	switch f {
	case Terraform:
		return ".tfvars"
	case Shell:
		return ".sh"
	default:
		return ".env"
	}
}

// ValidatePath checks that path ends with the extension recommended for
// format. The returned path is always the input path; a mismatch only
// produces an advisory warning.
func ValidatePath(path, format string) Validation {
	ext := RecommendedExtension(Parse(format))
	if strings.HasSuffix(path, ext) {
		return Validation{Path: path}
	}

	return Validation{
		Path: path,
		Warning: fmt.Sprintf("Warning: Format is '%s' but file extension is not '%s'. Recommended: %s",
			format, ext, replaceExtension(path, ext)),
	}
}

// replaceExtension swaps the last extension of the final path element for
// ext, or appends ext when there is none.
func replaceExtension(path, ext string) string {
	dot := strings.LastIndex(path, ".")
	slash := strings.LastIndex(path, "/")
	if dot > slash && dot < len(path)-1 {
		return path[:dot] + ext
	}
	return path + ext
}
