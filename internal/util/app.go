package util

import (
	"runtime"
)

func GetAppName() string {
	return "CertPortal"
}

func GetAppLogoURL(frontURL string) string {
	return frontURL + "/logo.png"
}

// DetermineWorkers returns the number of generation workers to use when none is
// configured. jobCount caps the result when positive.
func DetermineWorkers(configured, jobCount int) int {
	workers := configured
	if workers <= 0 {
		workers = max(runtime.GOMAXPROCS(0), 1)
	}

	if jobCount > 0 {
		return min(workers, jobCount)
	}

	return workers
}
