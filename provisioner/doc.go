/*
Package provisioner applies a configuration document to the identity provider
and the gateway.

# Pipeline

The pipeline is a fixed, strictly sequential chain:

 1. authenticate - exchange administrator credentials for a token
 2. create-realm - create the realm with users, roles and clients
 3. fetch-public-key - PEM-wrap the realm public signing key
 4. provision-consumers - per consumer: create, then attach plugins in order
 5. declare-endpoints - per endpoint: declare the route, then attach plugins in order

A failing stage aborts the run; later stages never start and nothing is rolled
back. With ContinueOnError a failed consumer or endpoint is recorded and the
next one proceeds, and the run still ends failed.

# Session

Session carries the admin token and the realm public key between stages.
Each value is written once; a second write fails with ErrSessionValueSet.

# Modes

ModeUpsert (default) skips realms, consumers and routes that already exist and
tolerates 409 on plugin attachment, so re-running converges. ModeCreate always
creates.

# Form Encoding

Route fields and plugin configuration are flattened before they reach the
gateway: lists are joined with ", ". Route plugins send their configuration
as config.<key> fields; consumer credentials send theirs as top-level fields.
*/
package provisioner
