package parser

import (
	"strconv"
	"strings"
)

type WSLStatus struct {
	DefaultDistribution string `json:"default_distribution,omitempty"`
	DefaultVersion      int    `json:"default_version,omitempty"`
	KernelVersion       string `json:"kernel_version,omitempty"`
}

// ParseWSLStatus reads the "Key: value" lines printed by `wsl --status`.
// Unknown lines are ignored.
func ParseWSLStatus(text string) WSLStatus {
	var st WSLStatus
	for _, line := range strings.Split(text, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "default distribution":
			st.DefaultDistribution = value
		case "default version":
			if v, err := strconv.Atoi(value); err == nil {
				st.DefaultVersion = v
			}
		case "kernel version":
			st.KernelVersion = value
		}
	}
	return st
}
