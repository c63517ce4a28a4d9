//go:build windows

package probe

import (
	"fmt"
	"strconv"

	"golang.org/x/sys/windows/registry"
)

const currentVersionKey = `SOFTWARE\Microsoft\Windows NT\CurrentVersion`

func windowsBuild() (int, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, currentVersionKey, registry.QUERY_VALUE)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", currentVersionKey, err)
	}
	defer k.Close()

	s, _, err := k.GetStringValue("CurrentBuildNumber")
	if err != nil {
		return 0, fmt.Errorf("read CurrentBuildNumber: %w", err)
	}
	build, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parse build number %q: %w", s, err)
	}
	return build, nil
}
