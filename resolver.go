package statsd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/zap"
)

const defaultDNSTimeout = 800 * time.Millisecond

// resolveHost returns the address the collector host resolves to. IP
// literals are returned as is. Otherwise every configured resolver and
// the system resolver are queried concurrently and the first answer wins.
func resolveHost(ctx context.Context, host string, cfg ResolverConfig, logger *zap.Logger) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	ctx, cancel := context.WithTimeout(ctx, pickDuration(cfg.Timeout, defaultDNSTimeout))
	defer cancel()

	type result struct {
		ips    []string
		source string
		err    error
	}
	attempts := 1 + len(cfg.UDPServers) + len(cfg.TLSServers) + len(cfg.DoHEndpoints)
	// Buffered so late answers never block their goroutine.
	ch := make(chan result, attempts)

	query := func(source string, fn func() ([]string, error)) {
		go func() {
			ips, err := fn()
			ch <- result{ips, source, err}
		}()
	}

	for _, srv := range cfg.UDPServers {
		s := srv
		query("udp "+s, func() ([]string, error) { return resolveUDP(ctx, host, s) })
	}
	for _, srv := range cfg.TLSServers {
		s := srv
		query("tls "+s, func() ([]string, error) { return resolveTLS(ctx, host, s) })
	}
	for _, ep := range cfg.DoHEndpoints {
		e := ep
		query("doh "+e, func() ([]string, error) { return resolveDoH(ctx, host, e) })
	}
	query("system", func() ([]string, error) {
		netIPs, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
		ips := make([]string, 0, len(netIPs))
		for _, ip := range netIPs {
			ips = append(ips, ip.String())
		}
		return ips, err
	})

	var firstErr error
	for i := 0; i < attempts; i++ {
		select {
		case r := <-ch:
			if r.err == nil && len(r.ips) > 0 {
				if ip := pickIP(r.ips); ip != nil {
					logger.Debug("resolved statsd host",
						zap.String("host", host),
						zap.String("source", r.source),
						zap.Strings("ips", r.ips))
					return ip, nil
				}
			}
			if firstErr == nil {
				firstErr = r.err
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if firstErr == nil {
		firstErr = fmt.Errorf("no dns result for %s", host)
	}
	return nil, firstErr
}

// pickIP prefers IPv4 answers
func pickIP(ips []string) net.IP {
	var fallback net.IP
	for _, s := range ips {
		ip := net.ParseIP(s)
		if ip == nil {
			continue
		}
		if ip.To4() != nil {
			return ip
		}
		if fallback == nil {
			fallback = ip
		}
	}
	return fallback
}

func resolveUDP(ctx context.Context, host, server string) ([]string, error) {
	return exchange(ctx, host, server, "udp")
}

func resolveTLS(ctx context.Context, host, server string) ([]string, error) {
	return exchange(ctx, host, server, "tcp-tls")
}

func exchange(ctx context.Context, host, server, network string) ([]string, error) {
	c := &dns.Client{Net: network, Timeout: exchangeTimeout(ctx)}
	r, _, err := c.ExchangeContext(ctx, question(host), server)
	if err != nil {
		return nil, fmt.Errorf("%s dns %s: %w", network, server, err)
	}
	return replyIPs(r, network, server)
}

func resolveDoH(ctx context.Context, host, endpoint string) ([]string, error) {
	payload, err := question(host).Pack()
	if err != nil {
		return nil, fmt.Errorf("doh dns %s: %w", endpoint, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("doh dns %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/dns-message")
	req.Header.Set("Accept", "application/dns-message")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doh dns %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("doh dns %s: status %d", endpoint, resp.StatusCode)
	}

	// A DNS message never exceeds 64KiB.
	body, err := io.ReadAll(io.LimitReader(resp.Body, dns.MaxMsgSize))
	if err != nil {
		return nil, fmt.Errorf("doh dns %s: %w", endpoint, err)
	}
	r := new(dns.Msg)
	if err := r.Unpack(body); err != nil {
		return nil, fmt.Errorf("doh dns %s: %w", endpoint, err)
	}
	return replyIPs(r, "doh", endpoint)
}

// question builds an A query for host
func question(host string) *dns.Msg {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	return m
}

// exchangeTimeout lets a single exchange run until the resolve deadline
func exchangeTimeout(ctx context.Context) time.Duration {
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			return d
		}
	}
	return defaultDNSTimeout
}

func replyIPs(r *dns.Msg, network, server string) ([]string, error) {
	if r == nil {
		return nil, fmt.Errorf("%s dns %s: empty response", network, server)
	}
	if r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s dns %s: rcode %s", network, server, dns.RcodeToString[r.Rcode])
	}
	return answerIPs(r), nil
}

func answerIPs(r *dns.Msg) []string {
	ips := make([]string, 0, len(r.Answer))
	for _, ans := range r.Answer {
		if a, ok := ans.(*dns.A); ok {
			ips = append(ips, a.A.String())
		}
	}
	return ips
}

func pickDuration(v time.Duration, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
