package nvd

import (
	"fmt"
	"strconv"
)

// EarliestYear is the first yearly segment NVD publishes.
const EarliestYear = 2002

const feedPrefix = "nvdcve-1.1-"

// Segment identifies one NVD distribution file: a year or "modified".
type Segment string

const Modified Segment = "modified"

// Segments returns the yearly segments from earliest to current followed by
// Modified. Parse order matters: later segments override earlier ones.
func Segments(earliest, current int) []Segment {
	if earliest > current {
		earliest = current
	}
	segments := make([]Segment, 0, current-earliest+2)
	for year := earliest; year <= current; year++ {
		segments = append(segments, Segment(strconv.Itoa(year)))
	}
	return append(segments, Modified)
}

func (s Segment) metaName() string {
	return fmt.Sprintf("%s%s.meta", feedPrefix, s)
}

func (s Segment) feedName() string {
	return fmt.Sprintf("%s%s.json.zip", feedPrefix, s)
}

// FileName is the local artifact name.
func (s Segment) FileName() string {
	return fmt.Sprintf("%s.json.zip", s)
}
