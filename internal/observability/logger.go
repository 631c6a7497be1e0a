package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog for structured logging.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a structured logger writing JSON lines to output at the
// given level ("debug", "info", "warn", "error"). Unknown levels select info.
func NewLogger(service, version string, output io.Writer, level string) *Logger {
	if output == nil {
		output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	logger := zerolog.New(output).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Str("version", version).
		Logger()

	return &Logger{logger: logger}
}

// NewConsoleLogger is NewLogger with zerolog's human readable console writer.
func NewConsoleLogger(service, version string, output io.Writer, level string) *Logger {
	if output == nil {
		output = os.Stderr
	}
	return NewLogger(service, version, zerolog.ConsoleWriter{Out: output, TimeFormat: time.Kitchen}, level)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithUser adds user_id context to logger.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{logger: l.logger.With().Str("user_id", userID).Logger()}
}

// WithPeer adds peer_id context to logger.
func (l *Logger) WithPeer(peerID string) *Logger {
	return &Logger{logger: l.logger.With().Str("peer_id", peerID).Logger()}
}

// WithConversation adds conversation_id context to logger.
func (l *Logger) WithConversation(conversationID string) *Logger {
	return &Logger{logger: l.logger.With().Str("conversation_id", conversationID).Logger()}
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

// Error logs an error message.
func (l *Logger) Error(err error, msg string) {
	l.logger.Error().Err(err).Msg(msg)
}

// IdentityInitialized logs a completed identity setup.
func (l *Logger) IdentityInitialized(userID, fingerprint string, created bool) {
	l.logger.Info().
		Str("user_id", userID).
		Str("fingerprint", fingerprint).
		Bool("created", created).
		Msg("identity initialized")
}

// DirectoryRecordPublished logs a write of the local public key record.
func (l *Logger) DirectoryRecordPublished(userID, reason string) {
	l.logger.Info().
		Str("user_id", userID).
		Str("reason", reason).
		Msg("public key record published")
}

// ConversationKeyDerived logs a fresh conversation key derivation.
func (l *Logger) ConversationKeyDerived(peerID, conversationID string, elapsed time.Duration) {
	l.logger.Debug().
		Str("peer_id", peerID).
		Str("conversation_id", conversationID).
		Dur("elapsed", elapsed).
		Msg("conversation key derived")
}

// MessageSent logs a message handed to the relay.
func (l *Logger) MessageSent(peerID, conversationID string, ciphertextLen int) {
	l.logger.Debug().
		Str("peer_id", peerID).
		Str("conversation_id", conversationID).
		Int("ciphertext_len", ciphertextLen).
		Msg("message sent")
}

// DecryptFailed logs a message that could not be opened.
func (l *Logger) DecryptFailed(senderID, conversationID, reason string, err error) {
	l.logger.Warn().
		Str("sender_id", senderID).
		Str("conversation_id", conversationID).
		Str("reason", reason).
		Err(err).
		Msg("message decryption failed")
}

// RequestServed logs one relay HTTP request.
func (l *Logger) RequestServed(method, path string, status int, elapsed time.Duration) {
	l.logger.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("elapsed", elapsed).
		Msg("request")
}
