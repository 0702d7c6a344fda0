package diag

import "context"

type contextKeys string

const (
	requestIDKey  contextKeys = "requestID"
	transferIDKey contextKeys = "transferID"
)

// ContextWithRequestID - create context with requestID
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDValue - returns requestID value taken from context
func RequestIDValue(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// ContextWithTransferID - create context with transferID so all
// log entries of a transfer workflow can be correlated
func ContextWithTransferID(ctx context.Context, transferID string) context.Context {
	return context.WithValue(ctx, transferIDKey, transferID)
}

// TransferIDValue - returns transferID value taken from context
func TransferIDValue(ctx context.Context) string {
	return stringValue(ctx, transferIDKey)
}

func stringValue(ctx context.Context, key contextKeys) string {
	val := ctx.Value(key)
	if val == nil {
		return ""
	}
	return val.(string)
}

// contextData collects known context values to be logged
func contextData(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	var data map[string]string
	for _, key := range []contextKeys{requestIDKey, transferIDKey} {
		if val := stringValue(ctx, key); val != "" {
			if data == nil {
				data = map[string]string{}
			}
			data[string(key)] = val
		}
	}
	return data
}
