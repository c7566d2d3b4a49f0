// internal/app/system/auditlog/logger.go
package auditlog

import (
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Modes accepted by Config.Mode.
const (
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	// Mode is "log" (zap) or "off" (disabled). Blank means log.
	Mode string
}

// Logger records refused group and invite operations as structured log
// events. Successful mutations are already kept in each group's own audit
// trail; this covers the attempts that never reached the store.
type Logger struct {
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(zapLog *zap.Logger, config Config) *Logger {
	return &Logger{zapLog: zapLog, config: config}
}

// NewNopLogger returns a Logger that discards everything.
func NewNopLogger() *Logger {
	return New(zap.NewNop(), Config{Mode: ModeOff})
}

// Event is one refused operation.
type Event struct {
	Operation string
	Actor     string
	GroupID   primitive.ObjectID
	Target    string
	Code      string
	Reason    string
}

func (l *Logger) enabled() bool {
	return l != nil && l.zapLog != nil && l.config.Mode != ModeOff
}

// Log writes event. A nil Logger is a no-op so services and tests can run
// without one.
func (l *Logger) Log(event Event) {
	if !l.enabled() {
		return
	}
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.Bool("success", false),
		zap.String("operation", event.Operation),
		zap.String("actor", event.Actor),
	}
	if !event.GroupID.IsZero() {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.Target != "" {
		fields = append(fields, zap.String("target", event.Target))
	}
	if event.Code != "" {
		fields = append(fields, zap.String("code", event.Code))
	}
	if event.Reason != "" {
		fields = append(fields, zap.String("failure_reason", event.Reason))
	}
	l.zapLog.Warn("audit event", fields...)
}

// Denied records an access-gate refusal.
func (l *Logger) Denied(op, actor string, groupID primitive.ObjectID, target, reason string) {
	l.Log(Event{
		Operation: op,
		Actor:     actor,
		GroupID:   groupID,
		Target:    target,
		Code:      "denied",
		Reason:    reason,
	})
}

// Rejected records a refusal carried by err: missing groups, invites or
// members and state conflicts. Validation and internal errors are ignored;
// the former are client noise and the latter are logged where they happen.
func (l *Logger) Rejected(op, actor string, groupID primitive.ObjectID, target string, err error) {
	if err == nil || !l.enabled() {
		return
	}
	switch apperr.KindOf(err) {
	case apperr.Authorization, apperr.NotFound, apperr.StateConflict:
	default:
		return
	}
	code, msg := apperr.Public(err)
	l.Log(Event{
		Operation: op,
		Actor:     actor,
		GroupID:   groupID,
		Target:    target,
		Code:      code,
		Reason:    msg,
	})
}
