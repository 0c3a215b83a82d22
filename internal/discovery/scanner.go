// Package discovery finds cameras on the local network.
//
// A sweep dials the RTSP port across a configured CIDR with a bounded worker
// pool, then reads the kernel ARP table to recover MAC addresses for the hosts
// that answered. Results are upserted into the registry keyed by MAC, so
// repeated sweeps track address changes without duplicating cameras.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"xcam/internal/config"
	"xcam/internal/logging"
	"xcam/internal/registry"
)

// hostLimit caps a sweep so a misconfigured CIDR cannot dial half the internet.
const hostLimit = 4096

// Scanner sweeps one network for cameras.
type Scanner struct {
	network      string
	rtspPort     int
	probeTimeout time.Duration
	maxWorkers   int
	arpBinary    string
	dial         func(ctx context.Context, address string) (net.Conn, error)
	logger       *slog.Logger
}

// NewScanner builds a scanner from configuration.
func NewScanner(cfg *config.Config, logger *slog.Logger) *Scanner {
	dialer := &net.Dialer{}
	return &Scanner{
		network:      cfg.Discovery.Network,
		rtspPort:     cfg.Camera.RTSPPort,
		probeTimeout: time.Duration(cfg.Discovery.ProbeTimeout) * time.Millisecond,
		maxWorkers:   cfg.Discovery.MaxWorkers,
		arpBinary:    cfg.ARPBinary(),
		dial: func(ctx context.Context, address string) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", address)
		},
		logger: logging.NewComponentLogger(logger, "discovery"),
	}
}

// Scan sweeps the configured network and returns one camera record per host
// that answered on the RTSP port and appears in the ARP table.
func (s *Scanner) Scan(ctx context.Context) ([]registry.Camera, error) {
	hosts, err := expandNetwork(s.network)
	if err != nil {
		return nil, err
	}

	responsive := s.probeHosts(ctx, hosts)
	if len(responsive) == 0 {
		return nil, nil
	}

	table, err := s.arpTable(ctx)
	if err != nil {
		return nil, err
	}

	cameras := make([]registry.Camera, 0, len(responsive))
	for _, ip := range responsive {
		entry, ok := table[ip]
		if !ok {
			s.logger.Debug("responsive host missing from arp table", logging.String("ip", ip))
			continue
		}
		cameras = append(cameras, registry.Camera{
			Name:       ip,
			IPAddress:  ip,
			MACAddress: entry.mac,
			IPType:     entry.ipType(),
			Status:     registry.StatusActive,
		})
	}
	s.logger.Info("network sweep complete",
		logging.Int("hosts", len(hosts)),
		logging.Int("responsive", len(responsive)),
		logging.Int("cameras", len(cameras)))
	return cameras, nil
}

func (s *Scanner) probeHosts(ctx context.Context, hosts []string) []string {
	workers := s.maxWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(hosts) {
		workers = len(hosts)
	}

	jobs := make(chan string)
	results := make(chan string, len(hosts))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for host := range jobs {
				if s.probe(ctx, host) {
					results <- host
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

	var responsive []string
	for host := range results {
		responsive = append(responsive, host)
	}
	return responsive
}

func (s *Scanner) probe(ctx context.Context, host string) bool {
	probeCtx := ctx
	if s.probeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, s.probeTimeout)
		defer cancel()
	}
	conn, err := s.dial(probeCtx, net.JoinHostPort(host, strconv.Itoa(s.rtspPort)))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// expandNetwork lists the usable host addresses of an IPv4 CIDR.
func expandNetwork(cidr string) ([]string, error) {
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("parse network %q: %w", cidr, err)
	}
	ip := ipNet.IP.To4()
	if ip == nil {
		return nil, fmt.Errorf("network %q is not IPv4", cidr)
	}

	ones, bits := ipNet.Mask.Size()
	total := 1 << (bits - ones)
	if total > hostLimit {
		return nil, fmt.Errorf("network %q spans %d addresses, limit is %d", cidr, total, hostLimit)
	}

	var hosts []string
	current := make(net.IP, len(ip))
	copy(current, ip)
	for i := 0; i < total; i++ {
		// Skip the network and broadcast addresses on real subnets.
		if total > 2 && (i == 0 || i == total-1) {
			incrementIP(current)
			continue
		}
		hosts = append(hosts, current.String())
		incrementIP(current)
	}
	return hosts, nil
}

func incrementIP(ip net.IP) {
	for i := len(ip) - 1; i >= 0; i-- {
		ip[i]++
		if ip[i] != 0 {
			return
		}
	}
}
