package swarm

import (
	"io"
	"strings"

	"github.com/docker/cli/cli/config"
)

// HasRegistryAuth reports whether the local docker CLI config carries a
// credential for the given registry. Deploy forwards registry auth to the
// cluster (--with-registry-auth); warning ahead of time beats a pull failure
// on a worker node. docker.io never needs a credential for public images.
func HasRegistryAuth(registry string) bool {
	registry = strings.TrimSpace(registry)
	if registry == "" || registry == "docker.io" {
		return true
	}
	cfg := config.LoadDefaultConfigFile(io.Discard)
	auth, err := cfg.GetAuthConfig(registry)
	if err != nil {
		return false
	}
	return auth.Username != "" || auth.IdentityToken != "" || auth.Auth != ""
}
