package slip

import "context"

type contextKey int

const requestInfoKey contextKey = iota

// RequestInfo carries transport metadata the core records on issued
// sessions and audit events. Both fields are optional.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo attaches request metadata to ctx. The route layer calls
// this before invoking core operations; the core itself never inspects
// transports.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey, info)
}

// RequestInfoFromContext returns the attached metadata, or a zero value.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey).(RequestInfo)
	return info
}
