package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNothingSelected is returned when the user picks no files.
var ErrNothingSelected = errors.New("no files selected")

// ParseSelection turns input such as "1,3-5" or "all" into zero-based
// indexes into a list of n items. Indexes are returned in list order
// without duplicates.
func ParseSelection(input string, n int) ([]int, error) {
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" {
		return nil, ErrNothingSelected
	}

	picked := make([]bool, n)
	if input == "all" || input == "*" {
		for i := range picked {
			picked[i] = true
		}
	} else {
		for _, part := range strings.Split(input, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}

			lo, hi, err := parseRange(part)
			if err != nil {
				return nil, err
			}
			if lo < 1 || hi > n {
				return nil, fmt.Errorf("selection %q out of range 1-%d", part, n)
			}
			for i := lo; i <= hi; i++ {
				picked[i-1] = true
			}
		}
	}

	var indexes []int
	for i, ok := range picked {
		if ok {
			indexes = append(indexes, i)
		}
	}
	if len(indexes) == 0 {
		return nil, ErrNothingSelected
	}
	return indexes, nil
}

func parseRange(part string) (int, int, error) {
	from, to, isRange := strings.Cut(part, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid selection %q", part)
	}
	if !isRange {
		return lo, lo, nil
	}

	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid selection %q", part)
	}
	if hi < lo {
		return 0, 0, fmt.Errorf("invalid range %q", part)
	}
	return lo, hi, nil
}

// SelectFiles lists paths numbered on out and reads the user's choice
// from in.
func SelectFiles(in io.Reader, out io.Writer, paths []string) ([]string, error) {
	fmt.Fprintf(out, "\n📚 Found %d metadata files:\n", len(paths))
	for i, path := range paths {
		fmt.Fprintf(out, "  %3d. %s\n", i+1, path)
	}
	fmt.Fprint(out, "\nSelect files (e.g. 1,3-5 or all): ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	indexes, err := ParseSelection(line, len(paths))
	if err != nil {
		return nil, err
	}

	selected := make([]string, 0, len(indexes))
	for _, i := range indexes {
		selected = append(selected, paths[i])
	}
	return selected, nil
}
