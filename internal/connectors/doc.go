// Package connectors holds the driven.FileSource implementations that
// supply PDF files to the ingestion pipeline.
//
//   - filesystem: local directories, with change watching
//   - database: placeholder for a database-backed source
package connectors
