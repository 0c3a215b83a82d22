package discovery

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"xcam/internal/registry"
	"xcam/internal/transport"
)

var commandContext = exec.CommandContext

// arpEntry is one resolved neighbour from the kernel ARP table.
type arpEntry struct {
	mac       string
	permanent bool
}

func (e arpEntry) ipType() string {
	if e.permanent {
		return "static"
	}
	return "dynamic"
}

// arpLine matches `host (192.168.1.30) at aa:bb:cc:dd:ee:01 [ether] on eth0`.
var arpLine = regexp.MustCompile(`\((\d+\.\d+\.\d+\.\d+)\)\s+at\s+([0-9a-fA-F]{2}(?::[0-9a-fA-F]{2}){5})(.*)`)

// arpTable runs `arp -a` and parses the neighbour list.
func (s *Scanner) arpTable(ctx context.Context) (map[string]arpEntry, error) {
	cmd := commandContext(ctx, s.arpBinary, "-a") //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		return nil, transport.Wrap(transport.ErrExternalTool, "discovery", "arp", "read arp table", err)
	}
	return parseARPOutput(string(output)), nil
}

func parseARPOutput(output string) map[string]arpEntry {
	table := make(map[string]arpEntry)
	for _, line := range strings.Split(output, "\n") {
		match := arpLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		mac, err := registry.NormalizeMAC(match[2])
		if err != nil {
			continue
		}
		table[match[1]] = arpEntry{
			mac:       mac,
			permanent: strings.Contains(strings.ToUpper(match[3]), "PERM"),
		}
	}
	return table
}
