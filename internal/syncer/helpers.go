package syncer

import (
	"time"
)

func formatDateTime(d time.Time) string {
	return d.Format("02 Jan 06 15:04 MST")
}
