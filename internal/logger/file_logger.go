package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger represents a file logger for research and simulation activities
type Logger struct {
	component string
	logFile   *os.File
	logger    *log.Logger
	mu        sync.Mutex
	logDir    string
}

// LogLevel represents different types of log entries
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARN"
	LogLevelError   LogLevel = "ERROR"
	LogLevelTrade   LogLevel = "TRADE"
	LogLevelAlert   LogLevel = "ALERT"
)

// NewLogger creates a new file logger for the specified component
func NewLogger(component string) (*Logger, error) {
	return NewLoggerInDir(component, "logs")
}

// NewLoggerInDir creates a file logger writing under the given directory
func NewLoggerInDir(component, logDir string) (*Logger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02")
	filename := fmt.Sprintf("%s_%s.log", component, timestamp)
	logPath := filepath.Join(logDir, filename)

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	l := &Logger{
		component: component,
		logFile:   file,
		logger:    log.New(file, "", 0),
		logDir:    logDir,
	}

	l.writeSessionHeader()

	return l, nil
}

// NewWriterLogger creates a logger that writes to an arbitrary writer.
// Used by commands that log to stderr and by tests.
func NewWriterLogger(component string, w io.Writer) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(w, "", 0),
	}
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := fmt.Sprintf(`
================================================================================
🚀 %s SESSION STARTED
================================================================================
Started: %s
================================================================================
`, l.component, time.Now().Format("2006-01-02 15:04:05"))

	l.logger.Print(header)
}

// Log writes a formatted log entry with the specified level
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logEntry := fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)

	l.logger.Println(logEntry)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.Log(LogLevelInfo, format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.Log(LogLevelWarning, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.Log(LogLevelError, format, args...)
}

// Trade logs a simulated fill
func (l *Logger) Trade(format string, args ...interface{}) {
	l.Log(LogLevelTrade, format, args...)
}

// Alert logs a risk alert
func (l *Logger) Alert(format string, args ...interface{}) {
	l.Log(LogLevelAlert, format, args...)
}

// LogFill logs a simulated trade execution with its portfolio context
func (l *Logger) LogFill(action, symbol string, quantity int64, price, cash float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	fillLog := fmt.Sprintf(`[%s] [TRADE] %s %d %s @ $%.4f | 💼 Cash: $%.2f`,
		timestamp, action, quantity, symbol, price, cash)

	l.logger.Println(fillLog)
}

// LogRunSummary logs the headline numbers of a finished simulation
func (l *Logger) LogRunSummary(strategy string, finalCapital, totalReturn, maxDrawdown float64, totalTrades int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")

	summary := fmt.Sprintf(`
[%s] [INFO] ==================== RUN COMPLETED ====================
🧠 Strategy: %s
💰 Final Capital: $%.2f
📊 Total Return: %.2f%%
📉 Max Drawdown: %.2f%%
🔄 Trades: %d
=========================================================`,
		timestamp, strategy, finalCapital, totalReturn*100, maxDrawdown*100, totalTrades)

	l.logger.Println(summary)
}

// GetLogPath returns the path of the current log file
func (l *Logger) GetLogPath() string {
	if l.logFile == nil {
		return ""
	}
	return l.logFile.Name()
}

// Close closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] [INFO] Session ended", timestamp)
	return l.logFile.Close()
}
