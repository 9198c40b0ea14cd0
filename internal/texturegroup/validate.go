package texturegroup

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"texdb/internal/filesystem"
)

// SupportedVersions is the manifest format range this build reads.
const SupportedVersions = "^1"

var supportedConstraint = mustConstraint(SupportedVersions)

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Issue is a single problem found with a group.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	Message string `json:"message"`
}

// String formats the issue as "path: message".
func (i Issue) String() string {
	if i.Path == "" {
		return i.Message
	}
	return i.Path + ": " + i.Message
}

// Result is the outcome of checking or loading a group: either Valid, or
// Invalid with the issues that make it unusable. Changed reports that the
// group's attributes were rewritten and need saving.
type Result struct {
	Valid   bool
	Changed bool
	Issues  []Issue
}

// Valid returns a passing Result.
func Valid(changed bool) Result {
	return Result{Valid: true, Changed: changed}
}

// Invalid returns a failing Result.
func Invalid(issues ...Issue) Result {
	return Result{Issues: issues}
}

// Error joins the issues into one line.
func (r Result) Error() string {
	parts := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}

// Validate checks the group's setup. Category and name are cleaned in place
// (whitespace and special characters removed) so stored keys are always in
// canonical form. An Invalid result means the asset should be discarded.
func (g *Group) Validate() Result {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.issues) > 0 {
		return Invalid(g.issues...)
	}

	var issues []Issue

	v, err := semver.NewVersion(strings.TrimPrefix(g.version, "v"))
	if err != nil {
		issues = append(issues, Issue{Path: "/version", Message: fmt.Sprintf("invalid version %q: %v", g.version, err)})
	} else if !supportedConstraint.Check(v) {
		issues = append(issues, Issue{Path: "/version", Message: fmt.Sprintf("version %s is not supported (want %s)", v, SupportedVersions)})
	}

	category := CleanKey(g.category)
	name := CleanKey(g.name)
	changed := category != g.category || name != g.name
	g.category, g.name = category, name

	if category == "" {
		issues = append(issues, Issue{Path: "/category", Message: "category is empty"})
	}
	if name == "" {
		issues = append(issues, Issue{Path: "/name", Message: "name is empty"})
	}

	dir := dirOf(g.path)
	if info, err := filesystem.StatWithRetry(dir, filesystem.DefaultRetryConfig()); err != nil {
		issues = append(issues, Issue{Message: fmt.Sprintf("group folder: %v", err)})
	} else if !info.IsDir() {
		issues = append(issues, Issue{Message: fmt.Sprintf("group folder %s is not a directory", dir)})
	}

	if len(issues) > 0 {
		return Invalid(issues...)
	}
	return Valid(changed)
}
