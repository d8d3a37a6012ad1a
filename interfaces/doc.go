// Package interfaces defines the core types and contracts of the kongcloak
// provisioning toolkit, separating definitions from their implementations.
//
// # Document Types
//
// Document is the declarative input: a Keycloak section (connection info,
// administrator credentials and the Realm with its users, roles and clients)
// and a Kong section (connection info, Consumers and Endpoints, each carrying
// an ordered list of Plugins).
//
// The Representation types mirror the bodies exchanged with the identity
// provider admin API.
//
// # Admin Interfaces
//
// IdentityProvider: token exchange, realm creation and key-set retrieval.
//
// Gateway: consumer, consumer plugin, route and route plugin declaration.
//
// # Storage Interfaces
//
// StorageBackend: keyed storage for documents, secrets and run reports
// across multiple backend types (file, S3, IPFS, GitHub, Vault).
//
// StorageBackendFactory: Creates storage backends from URI strings and manages
// multi-backend configurations for redundant storage.
//
// # Errors
//
// ConfigError, TransportError and AdminAPIError form the error taxonomy shared
// by the loader, the admin clients and the orchestration driver.
package interfaces
