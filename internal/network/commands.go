package network

import (
	"fmt"
	"strings"
)

// Transaction is everything one batch changes on the switch.
type Transaction struct {
	VLANID      int
	Name        string
	Description string
	// Ports are distinct and sorted ascending.
	Ports []int
}

// Commands renders the transaction as IOS configuration-mode commands,
// followed by "end" and "write memory".
func (t Transaction) Commands(interfacePrefix string) []string {
	vlan := fmt.Sprintf("%d", t.VLANID)
	return []string{
		"vlan " + vlan,
		"name " + t.Name,
		"exit",
		interfaceSelector(interfacePrefix, t.Ports),
		"description " + t.Description,
		"switchport mode access",
		"switchport access vlan " + vlan,
		"no shutdown",
		"exit",
		"end",
		"write memory",
	}
}

// interfaceSelector returns "interface <if>" for one port and
// "interface range <if>a-b,<if>c" for several, folding consecutive ports.
func interfaceSelector(prefix string, ports []int) string {
	if len(ports) == 1 {
		return fmt.Sprintf("interface %s%d", prefix, ports[0])
	}

	var groups []string
	start, end := ports[0], ports[0]
	flush := func() {
		if start == end {
			groups = append(groups, fmt.Sprintf("%s%d", prefix, start))
		} else {
			groups = append(groups, fmt.Sprintf("%s%d-%d", prefix, start, end))
		}
	}
	for _, p := range ports[1:] {
		if p == end+1 {
			end = p
			continue
		}
		flush()
		start, end = p, p
	}
	flush()

	return "interface range " + strings.Join(groups, ",")
}
