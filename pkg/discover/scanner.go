// Package discover probes the local network for reachable wan2gp
// servers so the user does not have to look up the host address by
// hand.
package discover

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Server is one discovered endpoint. Healthy means the host answered
// the health probe with a success status; a server that accepts TCP
// but fails the probe is reported as unverified rather than dropped,
// since older server builds have no health route.
type Server struct {
	Host    string
	Port    int
	Healthy bool
	Latency time.Duration
}

// Addr returns the host:port form accepted by the settings store and
// the transport client
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Scanner probes candidate hosts for a listening wan2gp server
type Scanner struct {
	port        int
	timeout     time.Duration
	concurrency int
	httpClient  *http.Client
}

// NewScanner creates a scanner for the given port. A zero timeout
// defaults to 500ms per host, which keeps a /24 sweep under a few
// seconds at the default concurrency.
func NewScanner(port int, timeout time.Duration) *Scanner {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Scanner{
		port:        port,
		timeout:     timeout,
		concurrency: 64,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Scan probes every host in hosts concurrently and returns the ones
// with something listening on the scanner's port, ordered by address
func (s *Scanner) Scan(ctx context.Context, hosts []string) []Server {
	jobs := make(chan string)
	results := make(chan Server, len(hosts))

	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				if server, ok := s.probe(ctx, host); ok {
					results <- server
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, host := range hosts {
			select {
			case jobs <- host:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	var servers []Server
	for server := range results {
		servers = append(servers, server)
	}
	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Addr() < servers[j].Addr()
	})
	return servers
}

// ScanLocalNetworks sweeps the /24 of every non-loopback IPv4
// interface address
func (s *Scanner) ScanLocalNetworks(ctx context.Context) ([]Server, error) {
	hosts, err := LocalSubnetHosts()
	if err != nil {
		return nil, err
	}
	return s.Scan(ctx, hosts), nil
}

// probe checks a single host: first a TCP connect, then a health
// request to tell a wan2gp server apart from an arbitrary listener
func (s *Scanner) probe(ctx context.Context, host string) (Server, bool) {
	addr := net.JoinHostPort(host, strconv.Itoa(s.port))
	start := time.Now()

	dialer := net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return Server{}, false
	}
	conn.Close()

	server := Server{
		Host:    host,
		Port:    s.port,
		Latency: time.Since(start),
	}
	server.Healthy = s.checkHealth(ctx, addr)
	return server, true
}

func (s *Scanner) checkHealth(ctx context.Context, addr string) bool {
	req, err := http.NewRequestWithContext(ctx, "GET", "http://"+addr+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode <= 299
}

// LocalSubnetHosts enumerates every candidate address in the /24 of
// each non-loopback IPv4 interface, excluding the network and
// broadcast addresses and the local machine itself
func LocalSubnetHosts() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	seen := make(map[string]bool)
	var hosts []string
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() {
			continue
		}

		for _, host := range SubnetHosts(ip) {
			if host == ip.String() || seen[host] {
				continue
			}
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("no non-loopback IPv4 interface found")
	}
	return hosts, nil
}

// SubnetHosts returns the 254 usable addresses of ip's /24
func SubnetHosts(ip net.IP) []string {
	ip = ip.To4()
	if ip == nil {
		return nil
	}
	hosts := make([]string, 0, 254)
	for i := 1; i <= 254; i++ {
		hosts = append(hosts, fmt.Sprintf("%d.%d.%d.%d", ip[0], ip[1], ip[2], i))
	}
	return hosts
}
