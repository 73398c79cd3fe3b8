package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/v2rayA/beego/v2/logs"
)

// InitLog sets up the process-wide logger. logWay is "console" or "file".
func InitLog(logWay string, logFile string, logLevel string, maxDays int64, disableColor bool, disableTimestamp bool) {
	level := parseLevel(logLevel)
	logs.GetBeeLogger().SetLogFuncCallDepth(0)
	if logWay == "file" {
		conf := fmt.Sprintf(`{"filename":%q,"maxdays":%v,"daily":true}`, logFile, maxDays)
		if err := logs.SetLogger(logs.AdapterFile, conf); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	} else {
		conf := fmt.Sprintf(`{"color":%v,"timestamp":%v}`, !disableColor, !disableTimestamp)
		if err := logs.SetLogger(logs.AdapterConsole, conf); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	logs.SetLevel(level)
}

func parseLevel(logLevel string) int {
	switch strings.ToLower(logLevel) {
	case "trace", "debug":
		return logs.LevelDebug
	case "warn", "warning":
		return logs.LevelWarning
	case "error":
		return logs.LevelError
	default:
		return logs.LevelInformational
	}
}

func Trace(format string, v ...interface{}) {
	logs.Debug(format, v...)
}

func Debug(format string, v ...interface{}) {
	logs.Debug(format, v...)
}

func Info(format string, v ...interface{}) {
	logs.Info(format, v...)
}

func Warn(format string, v ...interface{}) {
	logs.Warn(format, v...)
}

func Error(format string, v ...interface{}) {
	logs.Error(format, v...)
}

// Fatal logs at critical level and exits the process.
func Fatal(format string, v ...interface{}) {
	logs.Critical(format, v...)
	logs.GetBeeLogger().Flush()
	os.Exit(1)
}
