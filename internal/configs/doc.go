// Package configs loads the project configuration.
//
// The configuration lives in env.config.toml (or .yaml, .yml, .json) in the
// project root and is read with viper. Every field is optional:
//
//	[envFiles]
//	dev = ".env.development"
//	prod = ".env.production"
//	keys = ".env.keys"
//
//	[typegen]
//	output = "./src/env.ts"
//	schema = "valibot"            # valibot | zod | none
//	publicPrefix = ["VITE_", "PUBLIC_"]
//
//	[sync]
//	links = ["apps/web"]
//	runner = "npx"
//	timeout = "2m"
//
//	[sync.convex]
//	exclude = ["CONVEX_*"]
//
//	[[sync.wrangler]]
//	config = "./wrangler.jsonc"
//	exclude = ["VITE_*"]
//	envMapping = { dev = "staging", prod = "production" }
//
// sync.wrangler may be a single table or an array of tables. Typegen and
// Sync are nil when their sections are absent, which lets callers tell
// "not configured" apart from "configured with defaults". A section present
// with no keys, such as a bare [sync.convex], counts as configured.
//
// Load validates the result and wraps every problem in ErrInvalidConfig.
// WriteScaffold writes the starter file used by `env init`.
package configs
