package chatserver

import (
	"context"
	"log/slog"
	"time"

	"github.com/martinemde/parley/enginellm"
)

// CompletionLogging returns client middleware that logs every completion
// round with its provider, model, duration, and token usage.
func CompletionLogging(logger *slog.Logger) enginellm.Middleware {
	return func(ctx context.Context, req enginellm.Request, next func(context.Context, enginellm.Request) (*enginellm.Response, error)) (*enginellm.Response, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		if err != nil {
			logger.Warn("completion failed",
				"provider", req.Provider,
				"model", req.Model,
				"duration", time.Since(start),
				"error", err,
			)
			return nil, err
		}
		logger.Debug("completion",
			"provider", resp.Provider,
			"model", resp.Model,
			"duration", time.Since(start),
			"input_tokens", resp.Usage.InputTokens,
			"output_tokens", resp.Usage.OutputTokens,
		)
		return resp, nil
	}
}
