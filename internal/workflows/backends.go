package workflows

import (
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/reconcile"
	"github.com/ethan-huo/env/internal/remote"
)

// Backends creates the remote stores a run talks to.
type Backends interface {
	Convex() reconcile.ValueStore
	Wrangler(configPath string) reconcile.NameStore
}

type cliBackends struct {
	runner        remote.Runner
	packageRunner string
	dir           string
}

// NewCLIBackends returns stores that drive the convex and wrangler CLIs
// through packageRunner (npx, bunx, "pnpm exec"). Convex commands run in dir.
func NewCLIBackends(runner remote.Runner, packageRunner, dir string) Backends {
	return cliBackends{runner: runner, packageRunner: packageRunner, dir: dir}
}

func (b cliBackends) Convex() reconcile.ValueStore {
	return remote.NewConvexStore(b.runner, b.packageRunner, b.dir)
}

func (b cliBackends) Wrangler(configPath string) reconcile.NameStore {
	return remote.NewWranglerStore(b.runner, b.packageRunner, configPath)
}

// defaultBackends builds CLI backends from the sync section of cfg.
func defaultBackends(cfg *configs.Config, dir string) Backends {
	packageRunner := configs.DefaultRunner
	runner := remote.ExecRunner{}
	if cfg.Sync != nil {
		packageRunner = cfg.Sync.Runner
		runner.Timeout = cfg.Sync.Timeout
	}
	return NewCLIBackends(runner, packageRunner, dir)
}
