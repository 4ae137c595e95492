package bills

import (
	"strconv"
	"strings"
)

// FolderPath builds root/year/month/company from canonical names.
func FolderPath(root string, m Metadata) string {
	return joinPath(strings.TrimRight(root, "/"), strconv.Itoa(m.Year), m.Month.String(), string(m.Company))
}

// ObjectPath appends fileName to folder.
func ObjectPath(folder, fileName string) string {
	return joinPath(strings.TrimRight(folder, "/"), fileName)
}

// DisplayPath renders a stored path for chat replies.
func DisplayPath(p string) string {
	return strings.ReplaceAll(strings.TrimPrefix(p, "/"), "_", " ")
}

func joinPath(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}
