package export

import (
	"fmt"
	"strconv"
	"strings"
)

// normalizeTime converts a subtitle timestamp like "01:02:03,450" into the
// normalized form the time_spans table stores: "1:2:3.450". Subtitle dumps
// occasionally carry hour fields past 24 (multi-part releases concatenated
// into one document); the overflow is folded into a leading day count, e.g.
// "26:00:01,5" becomes "1 2:0:1.5".
func normalizeTime(s string) (string, error) {
	toks := strings.Split(s, ":")
	if len(toks) != 3 {
		return "", fmt.Errorf("unexpected timestamp %q", s)
	}

	hours, err := strconv.Atoi(toks[0])
	if err != nil {
		return "", fmt.Errorf("unexpected timestamp %q: %w", s, err)
	}
	days := hours / 24
	hours = hours % 24

	minutes, err := strconv.Atoi(toks[1])
	if err != nil {
		return "", fmt.Errorf("unexpected timestamp %q: %w", s, err)
	}

	seconds, err := normalizeSeconds(strings.ReplaceAll(toks[2], ",", "."))
	if err != nil {
		return "", fmt.Errorf("unexpected timestamp %q: %w", s, err)
	}

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%d ", days)
	}
	fmt.Fprintf(&b, "%d:%d:%s", hours, minutes, seconds)
	return b.String(), nil
}

// normalizeSeconds strips leading zeros from the integer part while keeping
// the fractional digits exactly as written ("03.450" -> "3.450").
func normalizeSeconds(s string) (string, error) {
	intPart := s
	frac := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, frac = s[:dot], s[dot+1:]
	}

	n, err := strconv.Atoi(intPart)
	if err != nil {
		return "", err
	}
	if frac == "" {
		return strconv.Itoa(n), nil
	}
	return strconv.Itoa(n) + "." + frac, nil
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}
