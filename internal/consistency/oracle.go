package consistency

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/consistencyguard/internal/config"
	"github.com/agenthands/consistencyguard/internal/llm"
	"github.com/agenthands/consistencyguard/internal/logging"
)

const DefaultTimeout = 30 * time.Second

// Oracle always produces a verdict: provider failures become Fallback verdicts.
type Oracle struct {
	provider ReasoningProvider
	timeout  time.Duration
	logger   *zap.Logger
	// closer releases the provider's client, if it holds one.
	closer io.Closer
}

func NewOracle(provider ReasoningProvider, timeout time.Duration, logger *zap.Logger) *Oracle {
	if provider == nil {
		provider = NullProvider{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger = logging.OrNop(logger)
	return &Oracle{provider: provider, timeout: timeout, logger: logger}
}

// NewOracleFromConfig selects the provider from the configured credentials.
// The caller must Close the returned Oracle.
func NewOracleFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Oracle, error) {
	client, provider, err := llm.NewReasoningClient(ctx, cfg.Reasoning)
	if err != nil {
		return nil, err
	}
	return oracleForClient(client, provider, cfg, logger), nil
}

func oracleForClient(client llm.LLMClient, provider llm.Provider, cfg *config.Config, logger *zap.Logger) *Oracle {
	var rp ReasoningProvider = NullProvider{}
	if client != nil {
		rp = NewLLMProvider(string(provider), client, PromptsFromConfig(cfg.Consistency))
	}
	logging.OrNop(logger).Info("Consistency provider selected", zap.String("provider", rp.Name()))

	o := NewOracle(rp, cfg.Reasoning.Timeout(), logger)
	if c, ok := client.(io.Closer); ok {
		o.closer = c
	}
	return o
}

// Close releases the underlying client. It is safe to call more than once.
func (o *Oracle) Close() error {
	if o.closer == nil {
		return nil
	}
	c := o.closer
	o.closer = nil
	return c.Close()
}

func (o *Oracle) ProviderName() string {
	return o.provider.Name()
}

func (o *Oracle) Check(ctx context.Context, pair Pair) Verdict {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	v, err := o.provider.Judge(ctx, pair)
	if err != nil {
		fields := []zap.Field{zap.String("provider", o.provider.Name()), zap.Error(err)}
		var perr *ProviderError
		if errors.As(err, &perr) {
			fields = append(fields, zap.Stringer("reason", perr.Reason))
		}
		o.logger.Warn("Consistency check failed, using fallback verdict", fields...)
		return Fallback(err)
	}
	return v
}
