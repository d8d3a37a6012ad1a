// Package discovery resolves the configured identity provider and gateway
// hosts to admin API base URLs, optionally through DNS SRV records
// ("srv+_kong-admin._tcp.service.consul").
package discovery
