package appidentityassets

import _ "embed"

// YAML mirrors `.fulmen/app.yaml` so a standalone ghlink binary still
// resolves its identity (binary name, GHLINK_ env prefix, config dir).
//
//go:embed app.yaml
var YAML []byte
