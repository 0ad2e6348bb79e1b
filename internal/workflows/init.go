package workflows

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethan-huo/env/internal/audit"
	"github.com/ethan-huo/env/internal/configs"
	"github.com/ethan-huo/env/internal/dotenv"
	"github.com/ethan-huo/env/internal/utils"
)

// InitAction says what Init did with one file.
type InitAction string

const (
	InitCreated InitAction = "created"
	InitLinked  InitAction = "linked"
	InitUpdated InitAction = "updated"
	InitSkipped InitAction = "skipped"
	InitWarning InitAction = "warning"
)

// InitStep is the outcome for one file.
type InitStep struct {
	Path   string
	Action InitAction
	Detail string
}

// InitOptions configures the init workflow.
type InitOptions struct {
	// Dir is the project directory. Defaults to the working directory.
	Dir string

	// Home holds the shared ~/.env.keys. Defaults to the user's home.
	Home string

	// Environ is scanned for DOTENV_PRIVATE_* keys. os.Environ() when nil.
	Environ []string

	// Force overwrites existing env files and config.
	Force bool
}

// InitResult lists what Init did, in order.
type InitResult struct {
	Steps []InitStep
}

func (r *InitResult) add(path string, action InitAction, detail string) {
	r.Steps = append(r.Steps, InitStep{Path: path, Action: action, Detail: detail})
}

// GitignoreRules are appended to .gitignore by Init.
var GitignoreRules = []string{".env.keys", ".env.local", ".env*.local", audit.DefaultPath + "*"}

// Init scaffolds a project: the keys file (linked to ~/.env.keys or written
// from DOTENV_PRIVATE_* variables), both env files, .env.local, the config
// file and .gitignore rules. The keys file is handled first so .env.local
// can be decrypted.
func Init(opts InitOptions) (*InitResult, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}
	home := opts.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
	}
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	result := &InitResult{}
	keysPath := filepath.Join(dir, configs.DefaultKeysFile)
	if err := initKeys(result, keysPath, filepath.Join(home, configs.DefaultKeysFile), environ); err != nil {
		return nil, err
	}

	devPath := filepath.Join(dir, configs.DefaultDevFile)
	devExisted := utils.Exists(devPath)
	if err := initEnvFile(result, devPath, "# Development environment\n", opts.Force); err != nil {
		return nil, err
	}

	localPath := filepath.Join(dir, LocalFile)
	localExists := utils.Exists(localPath)
	switch {
	case devExisted && (!localExists || opts.Force):
		initLocal(result, devPath, localPath, keysPath, environ)
	case localExists:
		result.add(localPath, InitSkipped, "exists")
	}

	prodPath := filepath.Join(dir, configs.DefaultProdFile)
	if err := initEnvFile(result, prodPath, "# Production environment\n", opts.Force); err != nil {
		return nil, err
	}

	configPath := filepath.Join(dir, configs.ConfigName+".toml")
	if existing := findConfig(dir); existing != "" && !opts.Force {
		result.add(existing, InitSkipped, "exists")
	} else {
		if err := configs.WriteScaffold(configPath); err != nil {
			return nil, err
		}
		result.add(configPath, InitCreated, "")
	}

	gitignore := filepath.Join(dir, ".gitignore")
	existed := utils.Exists(gitignore)
	changed, err := utils.AppendMissingLines(gitignore, "# env", GitignoreRules)
	if err != nil {
		return nil, err
	}
	switch {
	case !changed:
		result.add(gitignore, InitSkipped, "rules exist")
	case existed:
		result.add(gitignore, InitUpdated, "")
	default:
		result.add(gitignore, InitCreated, "")
	}

	return result, nil
}

func initKeys(result *InitResult, keysPath, globalKeysPath string, environ []string) error {
	if info, err := os.Lstat(keysPath); err == nil {
		detail := "exists"
		if info.Mode()&os.ModeSymlink != 0 {
			if dest, err := os.Readlink(keysPath); err == nil && dest == globalKeysPath {
				detail = "already linked"
			}
		}
		result.add(keysPath, InitSkipped, detail)
		return nil
	}

	if utils.Exists(globalKeysPath) {
		if err := os.Symlink(globalKeysPath, keysPath); err != nil {
			return fmt.Errorf("linking %s: %w", keysPath, err)
		}
		result.add(keysPath, InitLinked, globalKeysPath)
		return nil
	}

	if pairs := dotenv.PrivateKeysFromEnv(environ); len(pairs) > 0 {
		if err := os.WriteFile(keysPath, []byte(dotenv.KeysFileContent(pairs)), 0600); err != nil {
			return fmt.Errorf("writing %s: %w", keysPath, err)
		}
		result.add(keysPath, InitCreated, "from environment variables")
		return nil
	}

	result.add(keysPath, InitWarning, globalKeysPath+" not found; create it or set DOTENV_PRIVATE_KEY_* variables")
	return nil
}

func initEnvFile(result *InitResult, path, content string, force bool) error {
	if utils.Exists(path) && !force {
		result.add(path, InitSkipped, "exists")
		return nil
	}
	// #nosec G306 -- encrypted env files are meant to be committed.
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	result.add(path, InitCreated, "")
	return nil
}

func initLocal(result *InitResult, devPath, localPath, keysPath string, environ []string) {
	lookup := dotenv.KeyLookup{KeysPath: keysPath, Getenv: environLookup(environ)}
	record, err := dotenv.Load(devPath, lookup)
	if err != nil {
		result.add(localPath, InitWarning, fmt.Sprintf("skipped, cannot decrypt %s: %v", devPath, err))
		return
	}
	content, err := dotenv.Serialize(record)
	if err == nil {
		err = os.WriteFile(localPath, []byte(content+"\n"), 0600)
	}
	if err != nil {
		result.add(localPath, InitWarning, err.Error())
		return
	}
	result.add(localPath, InitCreated, "decrypted from "+filepath.Base(devPath))
}

func findConfig(dir string) string {
	for _, ext := range []string{"toml", "yaml", "yml", "json"} {
		path := filepath.Join(dir, configs.ConfigName+"."+ext)
		if utils.Exists(path) {
			return path
		}
	}
	return ""
}

func environLookup(environ []string) func(string) string {
	values := make(map[string]string, len(environ))
	for _, kv := range environ {
		if name, value, ok := strings.Cut(kv, "="); ok {
			values[name] = value
		}
	}
	return func(name string) string { return values[name] }
}
