package tools

import "errors"

// NewCatalog registers every tool against deps. GitHub is required; Store
// and AI may be nil, in which case their tools report the missing backend.
func NewCatalog(deps Deps) (*Registry, error) {
	if deps.GitHub == nil {
		return nil, errors.New("github client is required")
	}

	registry := NewRegistry()
	registry.Logger = deps.Logger

	groups := [][]*Tool{
		repositoryTools(deps),
		branchTools(deps),
		commitTools(deps),
		issueTools(deps),
		pullRequestTools(deps),
		actionsTools(deps),
		securityTools(deps),
		deploymentTools(deps),
		webhookTools(deps),
		userTools(deps),
		metadataTools(deps),
		aiTools(deps),
	}
	for _, group := range groups {
		if err := registry.Register(group...); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
