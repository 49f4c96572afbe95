package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config LogConfig
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			ForceColors:     true,
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	return &Logger{
		Logger: log,
		config: config,
	}, nil
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel:
		levelColor = "\033[36m" // Cyan
	case logrus.InfoLevel:
		levelColor = "\033[32m" // Green
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m"
	}

	msg := fmt.Sprintf("%s [%s%s\033[0m] %s", timestamp, levelColor, level, entry.Message)
	if len(entry.Data) > 0 {
		msg += " |"
		for key, value := range entry.Data {
			msg += fmt.Sprintf(" %s=%v", key, value)
		}
	}
	msg += "\n"
	return []byte(msg), nil
}

// WithField adds a field to the logger
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields adds multiple fields to the logger
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// LogTokenDiscovered logs a new token pushed by the feed
func (l *Logger) LogTokenDiscovered(mint, creator, name, symbol string) {
	l.WithFields(logrus.Fields{
		"event":   "token_discovered",
		"mint":    mint,
		"creator": creator,
		"name":    name,
		"symbol":  symbol,
	}).Info("🔍 New token discovered")
}

// LogBalance logs wallet balance information
func (l *Logger) LogBalance(balanceSOL float64, balanceLamports uint64) {
	l.WithFields(logrus.Fields{
		"event":            "balance_check",
		"balance_sol":      balanceSOL,
		"balance_lamports": balanceLamports,
	}).Info("💰 Wallet balance")
}

// LogTradeSuccess logs a completed trade with its viewer URL
func (l *Logger) LogTradeSuccess(action, mint string, amount float64, signature, viewerURL string) {
	l.WithFields(logrus.Fields{
		"event":     "trade_success",
		"action":    action,
		"mint":      mint,
		"amount":    amount,
		"signature": signature,
		"tx_url":    viewerURL,
	}).Info("✅ Trade successful")
}

// LogTradeRejected logs a trade-construction refusal (non-200 status)
func (l *Logger) LogTradeRejected(action, mint, status string) {
	l.WithFields(logrus.Fields{
		"event":  "trade_rejected",
		"action": action,
		"mint":   mint,
		"status": status,
	}).Warn("🚫 Trade service refused request")
}
