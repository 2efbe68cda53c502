package uclog

import (
	"fmt"
	"os"
)

// LocalStatus contains basic approximate statistics about the process.
type LocalStatus struct {
	LoggerStats []LogTransportStats `json:"logger_stats"`
}

// GetStatus returns approximate statistics about the process's logging layer.
func GetStatus() LocalStatus {
	return LocalStatus{LoggerStats: GetStats()}
}

// Hostname centralizes the lookup of the current machine's hostname for
// inclusion in status/health payloads.
func Hostname() string {
	host, err := os.Hostname()
	if err != nil {
		host = fmt.Sprintf("error getting hostname: %v", err)
	}
	return host
}
