package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// parsePageRange parses page specifications like "1-3,5" into a set of
// 1-indexed page numbers. An empty range means all pages and returns nil.
func parsePageRange(pageRange string) (map[int]bool, error) {
	if strings.TrimSpace(pageRange) == "" {
		return nil, nil
	}

	pages := map[int]bool{}
	for _, part := range strings.Split(pageRange, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tokenPages, err := parseRangeToken(part)
		if err != nil {
			return nil, err
		}
		for _, p := range tokenPages {
			pages[p] = true
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("invalid page range: %q", pageRange)
	}
	return pages, nil
}

// parseRangeToken parses either a single page token (e.g., "3") or a range token (e.g., "1-5").
func parseRangeToken(part string) ([]int, error) {
	if strings.Contains(part, "-") {
		rangeParts := strings.Split(part, "-")
		if len(rangeParts) != 2 {
			return nil, fmt.Errorf("invalid range format: %s", part)
		}
		start, err := parsePageNumber(rangeParts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", rangeParts[0])
		}
		end, err := parsePageNumber(rangeParts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", rangeParts[1])
		}
		if start > end {
			return nil, fmt.Errorf("start page %d greater than end page %d", start, end)
		}
		out := make([]int, 0, end-start+1)
		for i := start; i <= end; i++ {
			out = append(out, i)
		}
		return out, nil
	}
	page, err := parsePageNumber(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	return []int{page}, nil
}

func parsePageNumber(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range", n)
	}
	return n, nil
}

// ValidatePageRange checks the syntax of a page range expression.
func ValidatePageRange(pageRange string) error {
	_, err := parsePageRange(pageRange)
	return err
}
