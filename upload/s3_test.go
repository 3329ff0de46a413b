package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunStamp(t *testing.T) {
	instant := time.Date(2024, 6, 12, 10, 30, 21, 0, time.UTC)
	assert.Equal(t, "20240612T103021Z", RunStamp(instant))

	// Non-UTC input normalizes to UTC.
	offset := time.FixedZone("UTC+2", 2*60*60)
	assert.Equal(t, "20240612T083021Z", RunStamp(time.Date(2024, 6, 12, 10, 30, 21, 0, offset)))
}

func TestRunKey(t *testing.T) {
	assert.Equal(t, "outputs/20240612T103021Z/ndvi.tif",
		RunKey("outputs", "20240612T103021Z", "data/processed/ndvi.tif"))

	// Prefix slashes are trimmed, never doubled.
	assert.Equal(t, "outputs/nested/20240612T103021Z/ndvi.tif",
		RunKey("/outputs/nested/", "20240612T103021Z", "ndvi.tif"))

	// No prefix at all is fine.
	assert.Equal(t, "20240612T103021Z/stats.csv",
		RunKey("", "20240612T103021Z", "/tmp/stats.csv"))
}
