package leave

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyTable maps a leave type to its annual entitlement in days.
type PolicyTable map[LeaveType]float64

func DefaultPolicy() PolicyTable {
	return PolicyTable{
		TypePTO:         12,
		TypeLOP:         0,
		TypeCompOff:     0,
		TypeSick:        6,
		TypeVacation:    0,
		TypePersonal:    0,
		TypeMaternity:   90,
		TypePaternity:   7,
		TypeBereavement: 3,
		TypeOther:       0,
	}
}

// Annual returns the annual days for t; unknown types grant nothing.
func (p PolicyTable) Annual(t LeaveType) float64 {
	return p[t]
}

// Accruing reports whether t has a positive annual entitlement. Requests
// against non-accruing types (lop, comp-off, ...) are not balance-checked.
func (p PolicyTable) Accruing(t LeaveType) bool {
	return p.Annual(t) > 0
}

// ParsePolicy applies "type=days" pairs separated by commas on top of the
// default table, e.g. "pto=15,sick=8".
func ParsePolicy(raw string) (PolicyTable, error) {
	table := DefaultPolicy()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("leave policy entry %q must be type=days", pair)
		}
		leaveType, err := ParseLeaveType(name)
		if err != nil {
			return nil, err
		}
		days, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || days < 0 {
			return nil, fmt.Errorf("leave policy days for %s must be a non-negative number", leaveType)
		}
		table[leaveType] = days
	}
	return table, nil
}
