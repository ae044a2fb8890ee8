package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Page segmentation modes by name, numbered as Tesseract numbers them.
var pageSegModes = map[string]int{
	"OSD_ONLY":               0,
	"AUTO_OSD":               1,
	"AUTO_ONLY":              2,
	"AUTO":                   3,
	"SINGLE_COLUMN":          4,
	"SINGLE_BLOCK_VERT_TEXT": 5,
	"SINGLE_BLOCK":           6,
	"SINGLE_LINE":            7,
	"SINGLE_WORD":            8,
	"CIRCLE_WORD":            9,
	"SINGLE_CHAR":            10,
	"SPARSE_TEXT":            11,
	"SPARSE_TEXT_OSD":        12,
	"RAW_LINE":               13,
}

// DefaultPageSegMode is used when none is configured.
const DefaultPageSegMode = "SINGLE_BLOCK"

// ParsePageSegMode accepts a mode name (case-insensitive) or its number.
func ParsePageSegMode(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pageSegModes[DefaultPageSegMode], nil
	}
	if n, ok := pageSegModes[strings.ToUpper(s)]; ok {
		return n, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 13 {
		return n, nil
	}
	return 0, fmt.Errorf("unknown page segmentation mode %q (valid: %s)", s, strings.Join(PageSegModeNames(), ", "))
}

// PageSegModeNames lists the known mode names in numeric order.
func PageSegModeNames() []string {
	names := make([]string, 0, len(pageSegModes))
	for name := range pageSegModes {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return pageSegModes[names[i]] < pageSegModes[names[j]] })
	return names
}
