package network

import (
	"slices"
	"strconv"
	"strings"
)

// ResolvePorts maps resource names to switch ports. The explicit table wins;
// otherwise a name made of PortNamePrefix followed by digits maps to that
// port number. Names that resolve to nothing are returned as unmapped.
func (c Config) ResolvePorts(names []string) (map[string]int, []string) {
	ports := make(map[string]int, len(names))
	var unmapped []string

	for _, name := range names {
		if port, ok := c.PortMapping[name]; ok {
			ports[name] = port
			continue
		}
		if port, ok := portFromName(c.PortNamePrefix, name); ok {
			ports[name] = port
			continue
		}
		unmapped = append(unmapped, name)
	}
	return ports, unmapped
}

func portFromName(prefix, name string) (int, bool) {
	if prefix == "" || !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	digits := name[len(prefix):]
	if digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	port, err := strconv.Atoi(digits)
	if err != nil || port < 1 {
		return 0, false
	}
	return port, true
}

// sortedPorts returns the distinct port numbers in ascending order.
func sortedPorts(ports map[string]int) []int {
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		out = append(out, p)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
