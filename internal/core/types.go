package core

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups that match nothing.
var ErrNotFound = errors.New("not found")

// RepositoryRef identifies a repository by owner and name.
type RepositoryRef struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// FullName returns the owner/repo form.
func (r RepositoryRef) FullName() string {
	return r.Owner + "/" + r.Repo
}

// RepositoryMetadata is the stored metadata document for a repository.
type RepositoryMetadata struct {
	Owner     string          `json:"owner"`
	Repo      string          `json:"repo"`
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
