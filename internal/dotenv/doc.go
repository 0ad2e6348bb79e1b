// Package dotenv loads, decrypts and edits dotenvx-style env files.
//
// An env file is a list of KEY=value lines parsed with godotenv. Values
// written as "encrypted:<base64>" are ECIES ciphertexts in the format used
// by dotenvx: secp256k1 ephemeral key, HKDF-SHA256 key derivation and
// AES-256-GCM with a 16 byte nonce.
//
// # Keys
//
// The public key lives in the env file itself as DOTENV_PUBLIC_KEY_<SUFFIX>,
// where SUFFIX is derived from the file name (.env.production becomes
// PRODUCTION). The matching DOTENV_PRIVATE_KEY_<SUFFIX> is looked up in the
// process environment first and then in the keys file (.env.keys by
// default). The unsuffixed DOTENV_PUBLIC_KEY / DOTENV_PRIVATE_KEY names are
// accepted as a fallback.
//
// # Records and Vars
//
// Load returns a Record, a flat name to plaintext value mapping. ParseVars
// turns a Record into sorted Vars annotated with their public/private scope
// for listing and type generation. DOTENV_* bookkeeping keys never appear in
// Vars.
package dotenv
