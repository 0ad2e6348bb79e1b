package configs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SaveTOML saves a struct to a TOML file.
func SaveTOML(filePath string, data interface{}) error {
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return toml.NewEncoder(file).Encode(data)
}

type scaffoldEnvFiles struct {
	Dev  string `toml:"dev"`
	Prod string `toml:"prod"`
}

type scaffoldTypegen struct {
	Output       string   `toml:"output"`
	Schema       string   `toml:"schema"`
	PublicPrefix []string `toml:"publicPrefix"`
}

type scaffold struct {
	EnvFiles scaffoldEnvFiles `toml:"envFiles"`
	Typegen  scaffoldTypegen  `toml:"typegen"`
}

const syncExample = `
# [sync]
# links = ["apps/web"]
# runner = "npx"
#
# [sync.convex]
# exclude = ["CONVEX_*"]
#
# [[sync.wrangler]]
# config = "./wrangler.jsonc"
# exclude = ["VITE_*"]
# envMapping = { dev = "staging", prod = "production" }
`

// WriteScaffold writes a starter env.config.toml to path. The sync section
// is emitted commented out.
func WriteScaffold(path string) error {
	err := SaveTOML(path, scaffold{
		EnvFiles: scaffoldEnvFiles{Dev: DefaultDevFile, Prod: DefaultProdFile},
		Typegen: scaffoldTypegen{
			Output:       "./src/env.ts",
			Schema:       DefaultSchema,
			PublicPrefix: DefaultPublicPrefixes,
		},
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString(syncExample); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
