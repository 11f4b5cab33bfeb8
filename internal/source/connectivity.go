package source

import (
	"context"
	"net"
	"net/url"
	"time"
)

// Probe checks reachability by opening a TCP connection to the remote
// service host.
type Probe struct {
	address string
	offline bool
	timeout time.Duration
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbe creates a Probe for the service at endpoint. An empty or
// unparseable endpoint, or offline set, makes the probe always report
// offline.
func NewProbe(endpoint string, offline bool) *Probe {
	d := &net.Dialer{}
	return &Probe{
		address: dialAddress(endpoint),
		offline: offline,
		timeout: 3 * time.Second,
		dialer:  d.DialContext,
	}
}

// Online implements Prober.
func (p *Probe) Online(ctx context.Context) bool {
	if p.offline || p.address == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer(ctx, "tcp", p.address)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func dialAddress(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		default:
			return ""
		}
	}
	return net.JoinHostPort(u.Hostname(), port)
}
