package model

import "time"

// AcqDateFormat is the wire format for acquisition dates
const AcqDateFormat = "2006-01-02"

// ParseAcqDate parses an acquisition date in AcqDateFormat
func ParseAcqDate(value string) (time.Time, error) {
	return time.Parse(AcqDateFormat, value)
}
