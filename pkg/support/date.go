package support

import (
	"time"

	"github.com/shapestone/shape-httpmock/pkg/servlet"
)

// DateLayout is the RFC 1123 layout used for date headers. The day of the
// month is not zero-padded, as in "Sun, 4 Jan 1970 11:20:00 GMT".
const DateLayout = "Mon, 2 Jan 2006 15:04:05 GMT"

// FormatDate formats a Unix timestamp in milliseconds as an RFC 1123 date in GMT.
func FormatDate(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format(DateLayout)
}

// ParseDate parses an RFC 1123 date, with or without a zero-padded day, and
// returns it as Unix milliseconds.
func ParseDate(value string) (int64, error) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return 0, servlet.NewFormatError("date", value, err)
	}
	return t.UnixMilli(), nil
}
