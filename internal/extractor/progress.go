package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"kingo/internal/constants"
)

// Progress is the wire shape of a single progress event, matching the
// spec's Progress event record: {video_id, status, percent?, speed?, eta?,
// message?}.
type Progress struct {
	VideoID string   `json:"video_id"`
	Status  string   `json:"status"`
	Percent *float64 `json:"percent,omitempty"`
	Speed   *string  `json:"speed,omitempty"`
	ETA     *string  `json:"eta,omitempty"`
	Message *string  `json:"message,omitempty"`
}

func strPtr(s string) *string    { return &s }
func floatPtr(f float64) *float64 { return &f }

// downloadLineRegex matches "[download] 12.3% of 100.00MiB at 5.00MiB/s ETA 00:15".
var downloadLineRegex = regexp.MustCompile(`\[download\]\s+(\d+\.?\d*)%\s+of\s+[\d.]+\w*\s+at\s+([\d.]+\w*/s)\s+ETA\s+(\S+)`)

// parseLine translates one line of extractor stdout into a Progress event,
// or returns ok=false if the line carries no progress information.
func parseLine(videoID, line string) (Progress, bool) {
	if m := downloadLineRegex.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Progress{}, false
		}
		return Progress{
			VideoID: videoID,
			Status:  constants.StatusDownloading,
			Percent: floatPtr(percent),
			Speed:   strPtr(m[2]),
			ETA:     strPtr(m[3]),
		}, true
	}

	if strings.Contains(line, "[Merger]") || strings.Contains(line, "[ExtractAudio]") || strings.Contains(line, "Deleting") {
		return Progress{
			VideoID: videoID,
			Status:  constants.StatusProcessing,
			Percent: floatPtr(constants.ProcessingPercent),
			Message: strPtr("processing"),
		}, true
	}

	return Progress{}, false
}
