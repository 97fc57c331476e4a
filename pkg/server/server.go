package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// New creates an HTTP server with timeouts tuned for bursty post-match traffic
func New(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           ":" + port,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}
}

// InLambda reports whether the process runs inside AWS Lambda
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// ListenAndServe runs server until it fails; a graceful Shutdown is not an error
func ListenAndServe(server *http.Server, errCh chan<- error) {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- err
	}
}

// LambdaHandler adapts handler to API Gateway proxy events
func LambdaHandler(handler http.Handler) *httpadapter.HandlerAdapter {
	return httpadapter.New(handler)
}

// StartLambda serves handler through API Gateway. It blocks for the lifetime of the function.
func StartLambda(handler http.Handler) {
	lambda.Start(LambdaHandler(handler).ProxyWithContext)
}

// StartLambdaFunc starts a plain Lambda function such as a scheduled job
func StartLambdaFunc(fn func(ctx context.Context) (interface{}, error)) {
	lambda.Start(fn)
}
