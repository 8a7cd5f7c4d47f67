// Package prompt implements the small interactive abstractions the deployer
// needs: a bounded numbered menu and a yes/no confirmation.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Skipped is returned by Select when the user declines to choose.
const Skipped = -1

// Select presents options as a numbered menu on w and reads one line from r.
// It returns the zero-based index of the chosen option, with the following
// input handling:
//
//   - empty input selects the first option
//   - "n" (or "N") skips
//   - a number outside [1, len(options)] is reported and treated as skip
//   - unparseable input is reported and treated as skip
//
// Select never returns an error for bad input; skipping is a valid outcome.
func Select(r io.Reader, w io.Writer, heading string, options []string) int {
	if len(options) == 0 {
		return Skipped
	}

	fmt.Fprintln(w, heading)
	for i, opt := range options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprintf(w, "Select [1-%d], Enter for 1, or n to skip: ", len(options))

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		return Skipped
	}
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return 0
	case strings.EqualFold(line, "n"):
		return Skipped
	}

	n, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintf(w, "Invalid selection %q, skipping\n", line)
		return Skipped
	}
	if n < 1 || n > len(options) {
		fmt.Fprintf(w, "Selection %d out of range [1-%d], skipping\n", n, len(options))
		return Skipped
	}
	return n - 1
}

// Confirm asks a yes/no question and returns true only for an explicit yes.
func Confirm(r io.Reader, w io.Writer, question string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(r).ReadString('\n')
	line = strings.TrimSpace(line)
	return strings.EqualFold(line, "y") || strings.EqualFold(line, "yes")
}
