//go:build !windows

package probe

func windowsBuild() (int, error) {
	return 0, ErrUnsupported
}
