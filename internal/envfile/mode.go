package envfile

import (
	"fmt"
	"os"
)

// Mode selects which backend operational commands are dispatched to.
type Mode string

const (
	// ModeCompose runs the stack on one host with docker compose.
	ModeCompose Mode = "compose"
	// ModeSwarm deploys the stack across a Docker Swarm cluster.
	ModeSwarm Mode = "swarm"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCompose, ModeSwarm:
		return Mode(s), nil
	case "":
		return ModeCompose, nil
	default:
		return "", fmt.Errorf("unknown deploy mode %q (expected %s or %s)", s, ModeCompose, ModeSwarm)
	}
}

// GetMode reads DEPLOY_MODE from the installation's environment file. A
// missing file is not an error: a fresh system defaults to compose so status
// queries work before install. An unrecognized value also falls back to
// compose; the persisted file stays the single source of truth either way.
func GetMode(dir string) (Mode, error) {
	set, err := Load(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return ModeCompose, nil
		}
		return "", fmt.Errorf("read deploy mode: %w", err)
	}
	mode, err := ParseMode(set.Lookup(KeyDeployMode))
	if err != nil {
		return ModeCompose, nil
	}
	return mode, nil
}
