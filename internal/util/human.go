package util

import "fmt"

// Human formats a byte count with a binary unit suffix.
func Human(n int64) string {
	units := []struct {
		size int64
		name string
	}{
		{1 << 30, "GB"},
		{1 << 20, "MB"},
		{1 << 10, "KB"},
	}

	for _, u := range units {
		if n >= u.size {
			return fmt.Sprintf("%.2f %s", float64(n)/float64(u.size), u.name)
		}
	}

	return fmt.Sprintf("%d B", n)
}
