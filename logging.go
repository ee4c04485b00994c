package fitty

import "time"

// FitLogEvent describes one fit attempt for logging.
type FitLogEvent struct {
	AttemptID     string
	Entry         string
	Function      string
	Status        FitStatus
	OldValues     []float64
	NewValues     []float64
	PreChiSquare  float64
	PostChiSquare float64
	Duration      time.Duration
	Err           error
}

// FitLogger records fit attempts.
type FitLogger interface {
	LogFit(FitLogEvent)
}

// FitLoggerFunc adapts a function to FitLogger.
type FitLoggerFunc func(FitLogEvent)

// LogFit implements FitLogger.
func (f FitLoggerFunc) LogFit(event FitLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopFitLogger struct{}

func (noopFitLogger) LogFit(FitLogEvent) {}

// WithFitLogger attaches a fit logger to the fitter.
func WithFitLogger(logger FitLogger) Option {
	return func(cfg *fitterConfig) {
		if logger == nil {
			cfg.fitLogger = noopFitLogger{}
			return
		}
		cfg.fitLogger = logger
	}
}
