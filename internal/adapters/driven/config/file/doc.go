// Package file persists docrag settings as TOML under the config directory
// (~/.docrag/config.toml unless --config-dir says otherwise). Keys are exposed
// flattened, so "chunker.chunk_size" reads the chunk_size key of [chunker].
package file
