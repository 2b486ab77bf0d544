package context

import "context"

type ContextKey string

var (
	RequestIDKey = ContextKey("X-Request-Id")
	MethodKey    = ContextKey("X-Method")
	RouteKey     = ContextKey("X-Route")
	RemoteIPKey  = ContextKey("X-Remote-Ip")
	StationKey   = ContextKey("X-Station-Id")
	BuildIDKey   = ContextKey("X-Build-Id")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(RequestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func GetMethod(ctx context.Context) string {
	value, ok := ctx.Value(MethodKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func GetRoute(ctx context.Context) string {
	value, ok := ctx.Value(RouteKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

func GetRemoteIP(ctx context.Context) string {
	value, ok := ctx.Value(RemoteIPKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetStationID tags the context with the warehouse scan station that
// originated the request.
func SetStationID(ctx context.Context, stationID string) context.Context {
	return context.WithValue(ctx, StationKey, stationID)
}

func GetStationID(ctx context.Context) string {
	value, ok := ctx.Value(StationKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetBuildID tags the context with the index build run it belongs to so
// every log line of a batch carries the same run identifier.
func SetBuildID(ctx context.Context, buildID string) context.Context {
	return context.WithValue(ctx, BuildIDKey, buildID)
}

func GetBuildID(ctx context.Context) string {
	value, ok := ctx.Value(BuildIDKey).(string)
	if !ok {
		return ""
	}
	return value
}
