package budget

import (
	"context"
	"strings"

	"github.com/arywk40-hue/budget-governor/internal/platform/requestctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// CallerHeader is the gRPC metadata key naming the claimed caller address.
const CallerHeader = "x-budget-governor-caller"

// RequestIDHeader is the gRPC metadata key for request correlation IDs.
const RequestIDHeader = "x-budget-governor-request-id"

// AuthorizationHeader carries the caller proof as "Bearer <token>".
const AuthorizationHeader = "authorization"

const bearerPrefix = "bearer "

// firstMetadataValue returns the first non-empty value for key.
func firstMetadataValue(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get(key) {
		if value = strings.TrimSpace(value); value != "" {
			return value
		}
	}
	return ""
}

// bearerToken extracts the token from an authorization value.
func bearerToken(value string) string {
	if len(value) < len(bearerPrefix) || !strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(value[len(bearerPrefix):])
}

// ProofInterceptor attaches the bearer proof of each unary call to its
// context, bound to the invoked method, and guarantees a request ID. Calls
// without a proof pass through; the governor rejects them where a proof is
// required.
func ProofInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		requestID := firstMetadataValue(ctx, RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, requestID))
		trace.SpanFromContext(ctx).SetAttributes(attribute.String("budget.request_id", requestID))

		if token := bearerToken(firstMetadataValue(ctx, AuthorizationHeader)); token != "" {
			ctx = requestctx.WithProof(ctx, requestctx.Proof{Token: token, Method: info.FullMethod})
		}
		return handler(ctx, req)
	}
}
