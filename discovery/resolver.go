package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// SRVPrefix marks a host value to be resolved through DNS SRV records.
const SRVPrefix = "srv+"

// ErrNoSRVRecords is returned when an SRV query yields no usable answer.
var ErrNoSRVRecords = errors.New("no SRV records found")

// Resolver turns configured host values into admin API base URLs.
type Resolver struct {
	// Server is the DNS server as host:port. Empty means the first nameserver of ResolvConf.
	Server string

	// ResolvConf is read when Server is empty. Defaults to /etc/resolv.conf.
	ResolvConf string

	Timeout time.Duration
	Log     *slog.Logger
}

// BaseURL returns the base URL for a host value.
//
// Accepted forms:
//   - host[:port] - prefixed with http://
//   - http(s)://host[:port][/path] - returned without trailing slash
//   - srv+<name> - resolved to the best SRV target, prefixed with http://
func (r *Resolver) BaseURL(ctx context.Context, host string) (string, error) {
	if strings.HasPrefix(host, SRVPrefix) {
		resolved, err := r.ResolveSRV(ctx, strings.TrimPrefix(host, SRVPrefix))
		if err != nil {
			return "", err
		}
		host = resolved
	}

	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimSuffix(host, "/"), nil
}

// ResolveSRV queries SRV records for name and returns target:port of the
// record with the lowest priority, and among those the highest weight.
func (r *Resolver) ResolveSRV(ctx context.Context, name string) (string, error) {
	server, err := r.server()
	if err != nil {
		return "", err
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	m.RecursionDesired = true

	timeout := r.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	c := &dns.Client{Timeout: timeout}

	in, _, err := c.ExchangeContext(ctx, m, server)
	if err != nil {
		return "", fmt.Errorf("SRV query for %s via %s failed: %w", name, server, err)
	}
	if in.Rcode != dns.RcodeSuccess {
		return "", fmt.Errorf("SRV query for %s failed: %s: %w", name, dns.RcodeToString[in.Rcode], ErrNoSRVRecords)
	}

	records := make([]*dns.SRV, 0, len(in.Answer))
	for _, answer := range in.Answer {
		if srv, ok := answer.(*dns.SRV); ok {
			records = append(records, srv)
		}
	}
	if len(records) == 0 {
		return "", fmt.Errorf("%s: %w", name, ErrNoSRVRecords)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Priority != records[j].Priority {
			return records[i].Priority < records[j].Priority
		}
		return records[i].Weight > records[j].Weight
	})

	best := records[0]
	target := net.JoinHostPort(strings.TrimSuffix(best.Target, "."), strconv.Itoa(int(best.Port)))

	if r.Log != nil {
		r.Log.Debug("Resolved SRV record",
			slog.String("name", name),
			slog.String("target", target),
			slog.Int("candidates", len(records)))
	}

	return target, nil
}

func (r *Resolver) server() (string, error) {
	if r.Server != "" {
		return r.Server, nil
	}

	path := r.ResolvConf
	if path == "" {
		path = "/etc/resolv.conf"
	}
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(conf.Servers) == 0 {
		return "", fmt.Errorf("no nameserver in %s", path)
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}
