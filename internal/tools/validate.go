package tools

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	namePattern   = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	branchPattern = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)
	pathPattern   = regexp.MustCompile(`^[A-Za-z0-9._/ -]+$`)
)

const (
	maxOwnerLen  = 39
	maxRepoLen   = 100
	maxBranchLen = 100
	maxPathLen   = 400
)

// ValidationError reports bad tool input. It never reaches GitHub.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidRepoName reports whether name is an acceptable repository name.
func ValidRepoName(name string) bool {
	return len(name) <= maxRepoLen && namePattern.MatchString(name)
}

// ValidOwner reports whether owner is an acceptable user or org login.
func ValidOwner(owner string) bool {
	return len(owner) <= maxOwnerLen && namePattern.MatchString(owner)
}

// ValidBranchName reports whether name is an acceptable branch name.
func ValidBranchName(name string) bool {
	if len(name) > maxBranchLen || !branchPattern.MatchString(name) {
		return false
	}
	return !strings.Contains(name, "..") && !strings.HasPrefix(name, "/") && !strings.HasSuffix(name, "/")
}

// ValidFilePath reports whether path is an acceptable repository file path.
func ValidFilePath(path string) bool {
	if len(path) > maxPathLen || !pathPattern.MatchString(path) {
		return false
	}
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return false
		}
	}
	return true
}

func validateOwnerRepo(owner, repo string) error {
	if !ValidOwner(owner) {
		return invalid("owner", "must match [A-Za-z0-9._-] and be at most 39 characters")
	}
	if !ValidRepoName(repo) {
		return invalid("repo", "must match [A-Za-z0-9._-] and be at most 100 characters")
	}
	return nil
}
