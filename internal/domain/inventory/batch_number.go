package inventory

import (
	"fmt"
	"time"
)

// BatchNumberPrefix is the leading token of every generated batch number
const BatchNumberPrefix = "BATCH"

// FormatBatchNumber renders a batch number as BATCH-YYYYMMDD-NNN. The
// sequence restarts at 1 each day per material and is derived from the
// persisted row count for that day, never from a process-local counter.
func FormatBatchNumber(receivedDate time.Time, sequence int) string {
	return fmt.Sprintf("%s-%s-%03d", BatchNumberPrefix, receivedDate.Format("20060102"), sequence)
}
