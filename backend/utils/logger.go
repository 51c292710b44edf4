package utils

import (
	"log"
	"os"
)

// InitLogger builds the application logger. The same instance is handed to
// the request-logging middleware and to the validation chain so pipeline
// fallbacks surface in the same stream as request logs.
func InitLogger() *log.Logger {
	return log.New(os.Stdout, "[eduadmin] ", log.LstdFlags|log.LUTC)
}
