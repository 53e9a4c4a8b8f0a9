package logconfig

import (
	"os"

	myLogger "github.com/sirupsen/logrus"
)

// This output format is used in tests (has terminal).
func ConfigDebugLogger() {
	myLogger.SetReportCaller(true)
	myLogger.SetLevel(myLogger.DebugLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

func ConfigInfoLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(myLogger.InfoLevel)
	myLogger.SetFormatter(&myLogger.TextFormatter{
		ForceColors:            true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
}

// This output format is used in production. JSON lines so a collector can
// index the relayer's structured fields (txId, status, op).
func ConfigProductionLogger() {
	myLogger.SetReportCaller(false)
	myLogger.SetLevel(levelFromEnv())
	myLogger.SetFormatter(&myLogger.JSONFormatter{})
}

// RELAYER_LOG_LEVEL overrides the default info level; unknown values are
// ignored rather than failing startup.
func levelFromEnv() myLogger.Level {
	raw := os.Getenv("RELAYER_LOG_LEVEL")
	if raw == "" {
		return myLogger.InfoLevel
	}
	level, err := myLogger.ParseLevel(raw)
	if err != nil {
		return myLogger.InfoLevel
	}
	return level
}
