// Package driving declares what the CLI and the MCP server may ask of docrag:
// build or extend the vector store, query it, and read or change settings.
//
// internal/core/services implements these ports; adapters in
// internal/adapters/driving depend only on the interfaces.
package driving
