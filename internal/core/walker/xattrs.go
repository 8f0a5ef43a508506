package walker

import (
	"golang.org/x/sys/unix"
)

// readXattrs returns the extended attributes of path without following
// symlinks. Unsupported filesystems and permission failures yield an
// empty set rather than an error.
func readXattrs(path string) (map[string][]byte, error) {
	names, err := listXattrNames(path)
	if err != nil || len(names) == 0 {
		return nil, err
	}

	attrs := make(map[string][]byte, len(names))
	for _, name := range names {
		value, err := getXattr(path, name)
		if err != nil {
			// attribute vanished or became unreadable mid-read
			continue
		}
		attrs[name] = value
	}
	return attrs, nil
}

func listXattrNames(path string) ([]string, error) {
	for {
		size, err := unix.Llistxattr(path, nil)
		if err != nil {
			return nil, ignorable(err)
		}
		if size == 0 {
			return nil, nil
		}

		buf := make([]byte, size)
		n, err := unix.Llistxattr(path, buf)
		if err == unix.ERANGE {
			// list grew between the size probe and the read
			continue
		}
		if err != nil {
			return nil, ignorable(err)
		}
		return splitXattrNames(buf[:n]), nil
	}
}

func getXattr(path, name string) ([]byte, error) {
	for {
		size, err := unix.Lgetxattr(path, name, nil)
		if err != nil {
			return nil, err
		}
		if size == 0 {
			return []byte{}, nil
		}

		buf := make([]byte, size)
		n, err := unix.Lgetxattr(path, name, buf)
		if err == unix.ERANGE {
			continue
		}
		if err != nil {
			return nil, err
		}
		return buf[:n], nil
	}
}

// splitXattrNames parses the NUL-separated name list
func splitXattrNames(buf []byte) []string {
	var names []string
	start := 0
	for i, b := range buf {
		if b == 0 {
			if i > start {
				names = append(names, string(buf[start:i]))
			}
			start = i + 1
		}
	}
	if start < len(buf) {
		names = append(names, string(buf[start:]))
	}
	return names
}

// ignorable maps expected per-filesystem failures to a nil error
func ignorable(err error) error {
	switch err {
	case unix.ENOTSUP, unix.EPERM, unix.EACCES, unix.ENODATA:
		return nil
	default:
		return err
	}
}
