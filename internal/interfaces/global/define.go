// Package global
package global

import (
	"flag"
	"time"
)

var (
	DebugMode      = flag.Bool("debug", false, "Enable debug mode")
	ConfigFilePath = flag.String("config", "./config.json", "Path to configuration file")
	RunOnce        = flag.Bool("once", false, "Run a single detection pass and exit")
)

const (
	AppVersion    = "0.3.0"
	ConfigVersion = "0.3.0"

	DefaultFilePermissions     = 0644
	DefaultDirectoryPermission = 0755

	LogDirectory = "logs"
	LogFileName  = "wxguard.log"

	ShutdownTimeout = 10 * time.Second
)
