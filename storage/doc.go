// Package storage provides keyed storage with pluggable backends for
// configuration documents, the secrets they reference, and run reports.
//
//   - File system storage for local use and tests
//   - S3-compatible object storage
//   - IPFS node storage (content-addressed, Store returns the CID)
//   - GitHub repository contents (read-only)
//   - HashiCorp Vault KV v2
//
// # Storage URI Format
//
//	[scheme]://[auth@]host[:port][/path][?params]
//
// Examples:
//
//   - file:///var/lib/kongcloak/
//   - s3://bucket-name/prefix/?region=us-west-2
//   - ipfs://ipfs.example.com:5001/
//   - github://owner/repo/deploy?ref=main
//   - vault://vault.example.com:8200/secret/kongcloak
//
// Content is namespaced by interfaces.ContentType: path-based backends place
// keys under documents/, secrets/ or reports/.
//
// MultiStorageBackend combines several backends: Fetch returns the first
// success, Store writes to every available backend.
package storage
