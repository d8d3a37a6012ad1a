/*
Package clients provides the admin API clients used by the provisioner.

# Client Types

  - AdminClient - generic admin API call: JSON or form bodies, bearer tokens,
    error classification and request metrics
  - KeycloakClient - identity provider admin API (interfaces.IdentityProvider)
  - KongClient - gateway admin API (interfaces.Gateway)

# Errors

Every call returns one of:

  - *interfaces.TransportError when the remote service could not be reached
  - *interfaces.AdminAPIError for a non-2xx status, carrying status code and body
  - a wrapped error when a 2xx body cannot be decoded

No call is retried.

# Form Encoding

The gateway accepts form-encoded bodies only. FlattenForm turns a plugin
configuration into form fields: lists are joined with ", " and nested mappings
become dotted keys.

	form := clients.FlattenForm(map[string]any{
	    "config": map[string]any{"origins": []any{"http://localhost:3000"}},
	})
	// config.origins=http://localhost:3000

# Example Usage

	kc := clients.NewKeycloakClient("http://localhost:8080", "/auth", log)
	token, err := kc.AdminToken(ctx, "admin", "admin")

	kong := clients.NewKongClient("http://localhost:8001", log)
	err = kong.CreateConsumer(ctx, "demo-client")
*/
package clients
