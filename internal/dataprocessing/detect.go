package dataprocessing

import (
	"regexp"
	"strconv"
)

// MinDays is the day count assumed for sheets in the original three-day layout.
const MinDays = 3

var dayPattern = regexp.MustCompile(`(?i)day\s*(\d+)`)

// DetectDayCount returns the largest day number referenced by any header,
// never less than MinDays. Numbers too large for an int are ignored.
func DetectDayCount(headers []string) int {
	maxDay := 0
	for _, h := range headers {
		for _, m := range dayPattern.FindAllStringSubmatch(h, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			if n > maxDay {
				maxDay = n
			}
		}
	}
	if maxDay < MinDays {
		return MinDays
	}
	return maxDay
}
