package nvd

import "fmt"

// MalformedRecordError reports a CVE item that could not be used.
// It never aborts a segment.
type MalformedRecordError struct {
	Index int
	ID    string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("malformed CVE item #%d (%s): %s", e.Index, e.ID, e.Err)
	}
	return fmt.Sprintf("malformed CVE item #%d: %s", e.Index, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

// CorruptArtifactError reports an artifact that cannot be opened or decoded.
// Nothing from such a segment is merged.
type CorruptArtifactError struct {
	Err error
}

func (e *CorruptArtifactError) Error() string {
	return fmt.Sprintf("corrupt artifact: %s", e.Err)
}

func (e *CorruptArtifactError) Unwrap() error { return e.Err }
