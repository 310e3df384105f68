package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level: %s", s)
	}
}

// Logger is a leveled key/value logger. Child loggers created with
// WithField(s) share the sink and carry accumulated context fields.
type Logger struct {
	level  Level
	out    *log.Logger
	json   bool
	fields []field
}

type field struct {
	key   string
	value interface{}
}

type Config struct {
	Level  Level
	Output io.Writer
	Format string // "json" or "text" (default)
}

func New() *Logger {
	return NewWithConfig(Config{Level: INFO, Output: os.Stdout})
}

func NewWithConfig(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	return &Logger{
		level: cfg.Level,
		out:   log.New(cfg.Output, "", 0),
		json:  cfg.Format == "json",
	}
}

// WithFields returns a child logger carrying the given key/value pairs in
// addition to the parent's. Keys from a trailing unpaired value are dropped.
func (l *Logger) WithFields(keyVals ...interface{}) *Logger {
	child := &Logger{
		level:  l.level,
		out:    l.out,
		json:   l.json,
		fields: make([]field, len(l.fields), len(l.fields)+len(keyVals)/2),
	}
	copy(child.fields, l.fields)
	for i := 0; i+1 < len(keyVals); i += 2 {
		child.fields = append(child.fields, field{
			key:   fmt.Sprintf("%v", keyVals[i]),
			value: keyVals[i+1],
		})
	}
	return child
}

// WithField returns a child logger with one additional context field.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(key, value)
}

func (l *Logger) Debug(msg string, keyVals ...interface{}) { l.log(DEBUG, msg, keyVals...) }
func (l *Logger) Info(msg string, keyVals ...interface{})  { l.log(INFO, msg, keyVals...) }
func (l *Logger) Warn(msg string, keyVals ...interface{})  { l.log(WARN, msg, keyVals...) }
func (l *Logger) Error(msg string, keyVals ...interface{}) { l.log(ERROR, msg, keyVals...) }

func (l *Logger) Fatal(msg string, keyVals ...interface{}) {
	l.log(ERROR, msg, keyVals...)
	os.Exit(1)
}

func (l *Logger) SetLevel(level Level) { l.level = level }
func (l *Logger) GetLevel() Level      { return l.level }

func (l *Logger) IsDebugEnabled() bool { return l.level <= DEBUG }

func (l *Logger) log(level Level, msg string, keyVals ...interface{}) {
	if level < l.level {
		return
	}

	all := make([]field, 0, len(l.fields)+len(keyVals)/2)
	all = append(all, l.fields...)
	for i := 0; i+1 < len(keyVals); i += 2 {
		all = append(all, field{key: fmt.Sprintf("%v", keyVals[i]), value: keyVals[i+1]})
	}

	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	if l.json {
		l.out.Print(formatJSON(ts, level, msg, all))
	} else {
		l.out.Print(formatText(ts, level, msg, all))
	}
}

func formatText(ts string, level Level, msg string, fields []field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", ts, level, msg)
	if len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%s", f.key, renderValue(f.value))
		}
	}
	return b.String()
}

func formatJSON(ts string, level Level, msg string, fields []field) string {
	obj := map[string]interface{}{
		"time":  ts,
		"level": level.String(),
		"msg":   msg,
	}
	for _, f := range fields {
		switch v := f.value.(type) {
		case error:
			obj[f.key] = v.Error()
		case time.Duration:
			obj[f.key] = v.String()
		default:
			obj[f.key] = v
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		// fields not representable in JSON degrade to text
		return formatText(ts, level, msg, fields)
	}
	return string(data)
}

func renderValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		if strings.ContainsAny(v, " \t") {
			return fmt.Sprintf("%q", v)
		}
		return v
	case error:
		return fmt.Sprintf("%q", v.Error())
	case time.Duration:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// package-level default logger

var defaultLogger = New()

func Debug(msg string, keyVals ...interface{}) { defaultLogger.Debug(msg, keyVals...) }
func Info(msg string, keyVals ...interface{})  { defaultLogger.Info(msg, keyVals...) }
func Warn(msg string, keyVals ...interface{})  { defaultLogger.Warn(msg, keyVals...) }
func Error(msg string, keyVals ...interface{}) { defaultLogger.Error(msg, keyVals...) }
func Fatal(msg string, keyVals ...interface{}) { defaultLogger.Fatal(msg, keyVals...) }

func WithFields(keyVals ...interface{}) *Logger { return defaultLogger.WithFields(keyVals...) }
func WithField(key string, value interface{}) *Logger {
	return defaultLogger.WithField(key, value)
}

func SetLevel(level Level) { defaultLogger.SetLevel(level) }

// Setup reconfigures the default logger from config values, typically once
// at process start.
func Setup(level Level, format string, output io.Writer) {
	defaultLogger = NewWithConfig(Config{Level: level, Format: format, Output: output})
}
