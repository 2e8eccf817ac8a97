// utils/safelog.go
// ============================================================================
// SAFE LOGGING - masks personal and financial data in production
// ============================================================================

package utils

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/LovationAdmin/bizpanel/models"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// IsProduction switches masking on. Set once at startup by InitLogger.
var IsProduction bool

// ParseLogLevel maps LOG_LEVEL values to slog levels, defaulting to INFO.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger installs the default slog logger: JSON in production, text
// otherwise.
func InitLogger(w io.Writer, level string, production bool) *slog.Logger {
	IsProduction = production

	opts := &slog.HandlerOptions{Level: ParseLogLevel(level)}
	var handler slog.Handler
	if production {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ============================================================================
// MASKING
// ============================================================================

var (
	emailRegex              = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	amountWithCurrencyRegex = regexp.MustCompile(`R\$\s*-?[\d.]+(,\d{1,2})?`)
	uuidRegex               = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// MaskString hides emails, amounts and shortens UUIDs in production.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := emailRegex.ReplaceAllString(input, "***@***.***")
	result = amountWithCurrencyRegex.ReplaceAllString(result, CurrencySymbol+" ***")
	result = uuidRegex.ReplaceAllStringFunc(result, func(id string) string {
		return id[:8] + "..."
	})
	return result
}

func MaskAmount(m models.Money) string {
	if IsProduction {
		return "***"
	}
	return FormatCurrency(m)
}

// MaskID keeps the first 8 characters of an identifier.
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// ============================================================================
// DOMAIN LOGGING
// ============================================================================

// LogBudgetAction logs an action on a budget without exposing identifiers
// or amounts.
func LogBudgetAction(ctx context.Context, action, budgetID, userID string, total models.Money) {
	slog.InfoContext(ctx, "budget "+action,
		"component", "budget",
		"budget_id", MaskID(budgetID),
		"user_id", MaskID(userID),
		"total_value", MaskAmount(total))
}

// LogAPIRequest logs a finished request. The level follows the status code.
func LogAPIRequest(ctx context.Context, method, path, userID string, status int, duration time.Duration) {
	level := slog.LevelInfo
	switch {
	case status >= 500:
		level = slog.LevelError
	case status >= 400:
		level = slog.LevelWarn
	}

	slog.Log(ctx, level, "HTTP request completed",
		"component", "http",
		"method", method,
		"path", MaskString(path),
		"user_id", MaskID(userID),
		"status_code", status,
		"duration_ms", duration.Milliseconds())
}
