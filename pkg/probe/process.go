package probe

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"
)

// processNames lists the executable names of running processes. Processes
// that exit or deny access mid-listing are skipped.
func processNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	names := make([]string, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
