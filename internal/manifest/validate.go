package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/compose-spec/compose-go/v2/loader"
	composetypes "github.com/compose-spec/compose-go/v2/types"
)

// Validate loads the generated manifest with the compose loader to catch
// structural mistakes at generation time instead of first deploy. Every
// depends_on target must name a service in the same manifest. The transpiler
// itself never goes through this parser; it stays line-oriented.
func Validate(path string, env map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}

	details := composetypes.ConfigDetails{
		WorkingDir: filepath.Dir(path),
		ConfigFiles: []composetypes.ConfigFile{
			{Filename: path, Content: data},
		},
		Environment: composetypes.Mapping(env),
	}
	project, err := loader.Load(details, func(o *loader.Options) {
		o.SetProjectName("dokploy", true)
		// Include profile-gated services so the optional reverse proxy is
		// validated too.
		o.Profiles = []string{"*"}
	})
	if err != nil {
		return err
	}

	for name, svc := range project.Services {
		for dep := range svc.DependsOn {
			if _, ok := project.Services[dep]; !ok {
				return fmt.Errorf("service %s depends on undefined service %s", name, dep)
			}
		}
	}
	return nil
}
