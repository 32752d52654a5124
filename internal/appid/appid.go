// Package appid resolves the ghlink application identity.
package appid

import (
	"context"

	"github.com/fulmenhq/gofulmen/appidentity"

	appidentityassets "github.com/ghlink/ghlink/internal/assets/appidentity"
)

// Fallback values used when no identity can be resolved at all.
const (
	DefaultBinaryName = "ghlink"
	DefaultEnvPrefix  = "GHLINK_"
)

func init() {
	// An explicit FULMEN_APP_IDENTITY_PATH or a .fulmen/app.yaml on disk still
	// wins; the embedded copy only covers standalone binaries.
	_ = appidentity.RegisterEmbeddedIdentityYAML(appidentityassets.YAML)
}

// Get returns the cached process identity.
func Get(ctx context.Context) (*appidentity.Identity, error) {
	return appidentity.Get(ctx)
}

// EnvPrefix returns the identity env prefix with a trailing underscore,
// falling back to GHLINK_.
func EnvPrefix(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil || identity.EnvPrefix == "" {
		return DefaultEnvPrefix
	}
	prefix := identity.EnvPrefix
	if prefix[len(prefix)-1] != '_' {
		prefix += "_"
	}
	return prefix
}

// ConfigName returns the identity config name, then the binary name, then
// the ghlink default.
func ConfigName(ctx context.Context) string {
	identity, err := Get(ctx)
	if err != nil || identity == nil {
		return DefaultBinaryName
	}
	if identity.ConfigName != "" {
		return identity.ConfigName
	}
	if identity.BinaryName != "" {
		return identity.BinaryName
	}
	return DefaultBinaryName
}
