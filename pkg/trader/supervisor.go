package trader

import (
	"context"
	"fmt"
	"time"

	"github.com/Ohimoiza1205/uchicago-quant-trading/pkg/xchange"
	"github.com/sirupsen/logrus"
)

// Supervisor owns the exchange connection lifecycle. Every session
// failure is treated as transient: the supervisor logs it, waits the
// configured delay, and dials again. With maxAttempts zero it retries
// forever; only context cancellation stops it.
type Supervisor struct {
	session     xchange.Session
	delay       time.Duration
	maxAttempts int
	logger      *logrus.Logger
}

func NewSupervisor(session xchange.Session, delay time.Duration, maxAttempts int, logger *logrus.Logger) *Supervisor {
	return &Supervisor{
		session:     session,
		delay:       delay,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Run blocks for the life of the process. Connect itself blocks while
// the session is healthy, so each loop iteration is one full
// connect-serve-fail episode.
func (s *Supervisor) Run(ctx context.Context) error {
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		s.logger.Info("Attempting to connect to exchange...")
		err := s.session.Connect(ctx)
		if err == nil {
			err = fmt.Errorf("session closed by exchange")
		}
		attempts++

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			return fmt.Errorf("giving up after %d connection attempts: %w", attempts, err)
		}

		s.logger.WithError(err).Errorf("Connection lost, reconnecting in %s", s.delay)
		if err := sleepCtx(ctx, s.delay); err != nil {
			return err
		}
	}
}

// sleepCtx waits d unless ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
