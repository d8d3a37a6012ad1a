/*
Package configresolver loads the declarative provisioning document.

The document is read from a local file or a storage backend, decoded as YAML
or JSON with unknown fields rejected, and completed:

 1. Secret references are replaced with values from the secret store
 2. KEYCLOAK_HOST, KEYCLOAK_USERNAME, KEYCLOAK_PASSWORD and KONG_HOST override the document
 3. Explicit overrides (command line flags) override both
 4. Defaults are applied: localhost:8080, admin/admin, localhost:8001, "/auth"
 5. Required fields are validated

# Secret References

Any string value may contain references of the form:

	__SECRET_REF_<name>

where name matches [A-Za-z0-9_.-]+. Each reference is replaced by the secret
stored under name (interfaces.SecretType) in the secret store, with trailing
newlines trimmed. A reference that cannot be resolved is a configuration error.

	users:
	  - username: alice
	    password: __SECRET_REF_alice-password

# Errors

Every failure is an *interfaces.ConfigError. Field names the offending path,
e.g. "kong.endpoints[1].url", and is empty for document-level failures.
*/
package configresolver
