package logx

import (
	"context"

	"pkt.systems/livecoder/schema"
	"pkt.systems/pslog"
)

type contextKey int

const (
	sessionKey contextKey = iota
	documentKey
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithSession annotates the logger with a session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}

// WithDocument annotates the logger with the document file name and uri.
func WithDocument(log pslog.Logger, uri schema.DocumentURI) pslog.Logger {
	if uri != "" {
		log = log.With("document", uri.BaseName(), "uri", uri)
	}
	return log
}

// WithDialect annotates the logger with the dialect unless it is ambiguous.
func WithDialect(log pslog.Logger, dialect schema.Dialect) pslog.Logger {
	if dialect != "" && dialect != schema.DialectAmbiguous {
		log = log.With("dialect", dialect)
	}
	return log
}

// SessionFromContext annotates the context logger with the session marker
// unless the context already carries the same session.
func SessionFromContext(ctx context.Context, sessionID schema.SessionID) pslog.Logger {
	log := pslog.Ctx(ctx)
	if sessionID == "" {
		return log
	}
	if current, ok := ctx.Value(sessionKey).(schema.SessionID); ok && current == sessionID {
		return log
	}
	return WithSession(log, sessionID)
}

// ContextWithSessionLogger attaches the session logger and marker to ctx.
func ContextWithSessionLogger(ctx context.Context, log pslog.Logger, sessionID schema.SessionID) context.Context {
	ctx = pslog.ContextWithLogger(ctx, log)
	if sessionID == "" {
		return ctx
	}
	return context.WithValue(ctx, sessionKey, sessionID)
}

// ContextWithDocument stores the document marker on the context.
func ContextWithDocument(ctx context.Context, uri schema.DocumentURI) context.Context {
	if ctx == nil || uri == "" {
		return ctx
	}
	return context.WithValue(ctx, documentKey, uri)
}

// DocumentFromContext returns the document marker stored on ctx.
func DocumentFromContext(ctx context.Context) (schema.DocumentURI, bool) {
	if ctx == nil {
		return "", false
	}
	uri, ok := ctx.Value(documentKey).(schema.DocumentURI)
	return uri, ok && uri != ""
}
