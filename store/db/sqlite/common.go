package sqlite

import "strings"

// placeholders returns n placeholders for SQLite
func placeholders(n int) string {
	list := make([]string, n)
	for i := range list {
		list[i] = "?"
	}
	return strings.Join(list, ", ")
}
