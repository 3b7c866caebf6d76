package utils

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
)

// FirstReceiptNumber is issued when a business has no receipts yet
const FirstReceiptNumber = "#001"

var digitsPattern = regexp.MustCompile(`\d+`)

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// NextReceiptNumber increments the first run of digits in last and pads it
// to three digits: "#009" becomes "#010". An empty or digit-less last
// number restarts at FirstReceiptNumber.
func NextReceiptNumber(last string) string {
	match := digitsPattern.FindString(last)
	if match == "" {
		return FirstReceiptNumber
	}
	n, err := strconv.ParseUint(match, 10, 63)
	if err != nil {
		return FirstReceiptNumber
	}
	return fmt.Sprintf("#%03d", n+1)
}
