package constants

// HTTP Header Names
const (
	HeaderContentType    = "Content-Type"
	HeaderAuthorization  = "Authorization"
	HeaderUserAgent      = "User-Agent"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXTraceID       = "X-Trace-ID"
	HeaderXCorrelationID = "X-Correlation-ID"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderCFConnectingIP = "CF-Connecting-IP"
)

const (
	ContentTypeJSON = "application/json"
	BearerPrefix    = "Bearer "
)

// Common HTTP Error Messages
const (
	MsgNotFound   = "Resource not found"
	MsgBadRequest = "Invalid request"
	MsgTimeout    = "Request timeout"
	MsgRateLimit  = "Too many requests, please try again later"
)
