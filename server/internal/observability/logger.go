package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldPassID is the field name for matching pass ID.
	LogFieldPassID = "pass_id"
	// LogFieldItemUID is the field name for the subject item UID.
	LogFieldItemUID = "item_uid"
	// LogFieldStrategy is the field name for scoring strategy.
	LogFieldStrategy = "strategy"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldCandidates is the field name for candidate count.
	LogFieldCandidates = "candidates"
	// LogFieldMatches is the field name for recorded match count.
	LogFieldMatches = "matches"
	// LogFieldScore is the field name for a similarity score.
	LogFieldScore = "score"
	// LogFieldErrorCode is the field name for error code.
	LogFieldErrorCode = "error_code"
)

// PassContext represents the context for a single matching pass with
// structured logging.
type PassContext struct {
	PassID    string
	ItemUID   string
	Strategy  string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewPassContext creates a new pass context with a generated pass ID.
func NewPassContext(logger *slog.Logger, strategy, itemUID string) *PassContext {
	return &PassContext{
		PassID:    generatePassID(),
		ItemUID:   itemUID,
		Strategy:  strategy,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (p *PassContext) Info(msg string, attrs ...slog.Attr) {
	combined := p.baseAttrsAppended(attrs...)
	p.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, combined...)
}

// Debug logs a debug message.
func (p *PassContext) Debug(msg string, attrs ...slog.Attr) {
	combined := p.baseAttrsAppended(attrs...)
	p.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, combined...)
}

// Warn logs a warning message.
func (p *PassContext) Warn(msg string, attrs ...slog.Attr) {
	combined := p.baseAttrsAppended(attrs...)
	p.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, combined...)
}

// Error logs an error message with the error.
func (p *PassContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()))
	combined := p.baseAttrsAppended(allAttrs...)
	p.Logger.LogAttrs(context.Background(), slog.LevelError, msg, combined...)
}

// Duration returns the elapsed time since the pass started.
func (p *PassContext) Duration() time.Duration {
	return time.Since(p.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (p *PassContext) DurationMs() int64 {
	return p.Duration().Milliseconds()
}

func (p *PassContext) baseAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String(LogFieldPassID, p.PassID),
		slog.String(LogFieldItemUID, p.ItemUID),
		slog.String(LogFieldStrategy, p.Strategy),
	}
}

func (p *PassContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := p.baseAttrs()
	return append(base, attrs...)
}

func generatePassID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithPassContext adds the pass context to the context.
func WithPassContext(ctx context.Context, passCtx *PassContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, passCtx)
}

// FromContext extracts the pass context from the context.
func FromContext(ctx context.Context) (*PassContext, bool) {
	passCtx, ok := ctx.Value(ctxKey{}).(*PassContext)
	return passCtx, ok
}
