// Package main (cmd/provision) provisions an identity realm and the gateway
// resources that trust it.
//
// It loads the configuration document, authenticates against the Keycloak
// master realm, creates the realm with its users, roles and clients, fetches
// the realm public key, then creates the Kong consumers with their
// credentials and declares the routes with their plugins. Every stage runs
// after the previous one succeeded. The process exits non-zero on the first
// failure, naming the failing step and the admin API status.
//
// Hosts come from the document, then KEYCLOAK_HOST / KONG_HOST, then the
// --keycloak-host / --kong-host flags. A host of the form srv+<name> is
// resolved through DNS SRV records.
//
// Example usage:
//
//	kongcloak-provision --config=examples/kongcloak.yaml \
//	    --secret-store=vault://vault.internal:8200/secret/kongcloak \
//	    --report-store=file:///var/lib/kongcloak \
//	    --pushgateway-url=http://pushgateway:9091
package main
