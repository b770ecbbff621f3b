package tools

import "context"

// RequestContext carries request-scoped data (acting principal, origin
// channel, reply routing) injected into every handler invocation. It is not
// part of the model-visible schema.
type RequestContext map[string]any

// Well-known RequestContext keys.
const (
	CtxPrincipal = "principal"
	CtxChannel   = "channel"
	CtxChatID    = "chat_id"
	CtxRequestID = "request_id"
)

// String returns the value for key when it is a non-empty string.
func (rc RequestContext) String(key string) string {
	if rc == nil {
		return ""
	}
	s, _ := rc[key].(string)
	return s
}

// Principal returns the acting principal, or "" when anonymous.
func (rc RequestContext) Principal() string { return rc.String(CtxPrincipal) }

type reqctxKey struct{}

// WithRequest returns a child context carrying rc, so handlers that receive
// only a context.Context (timers, callbacks) can still recover the request
// scope.
func WithRequest(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, reqctxKey{}, rc)
}

// RequestFrom extracts the RequestContext from ctx.
// Returns nil if none was set.
func RequestFrom(ctx context.Context) RequestContext {
	rc, _ := ctx.Value(reqctxKey{}).(RequestContext)
	return rc
}
