package resolver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/PolarWolf314/keyward/internal/command"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

// ReadyProbe is always ready.
type ReadyProbe struct{}

func (ReadyProbe) Wait(context.Context) error { return nil }

// CommandProbe runs a readiness command once. The command owns any polling;
// a non-zero exit is reported with the command's own message.
type CommandProbe struct {
	Runner command.Command
	Args   []string
}

func (p CommandProbe) Wait(ctx context.Context) error {
	_, err := p.Runner.Run(ctx, p.Args, nil)
	if err != nil {
		logger.L().Debugf("Readiness command %v exited with status %d", p.Args, command.ExitCode(err))
	}
	return err
}

// HTTPProbe polls URL until it answers 2xx or Attempts requests have failed.
type HTTPProbe struct {
	URL      string
	Interval time.Duration
	Attempts int

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

func (p HTTPProbe) Wait(ctx context.Context) error {
	client := retryablehttp.NewClient()
	client.Logger = leveledLogger{}
	client.RetryMax = max(p.Attempts-1, 0)
	client.RetryWaitMin = p.Interval
	client.RetryWaitMax = p.Interval
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		return !isSuccess(resp.StatusCode), nil
	}
	if p.HTTPClient != nil {
		client.HTTPClient = p.HTTPClient
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return fmt.Errorf("management plane not ready: %s", resp.Status)
	}
	return nil
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}

// leveledLogger routes retryablehttp's chatter into the process-wide sink.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) { logger.L().Errorf("%s %v", msg, kv) }
func (leveledLogger) Info(msg string, kv ...interface{})  { logger.L().Debugf("%s %v", msg, kv) }
func (leveledLogger) Debug(msg string, kv ...interface{}) { logger.L().Debugf("%s %v", msg, kv) }
func (leveledLogger) Warn(msg string, kv ...interface{})  { logger.L().Warnf("%s %v", msg, kv) }
