package store

import "log/slog"

// DefaultStormBudget is the number of subscriber notifications one outermost
// write may cause, including everything its subscribers write in turn.
const DefaultStormBudget = 10000

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for recovered panics and storm trips.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver attaches an Observer, typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithSkipUnchanged makes Set skip notification when the new value is
// structurally equal to the stored one. Off by default: a write always
// notifies, so consumers that treat every write as "re-render" keep working.
// The value is still recorded and Observer.Set is still reported.
func WithSkipUnchanged(skip bool) Option {
	return func(s *Store) {
		s.skipUnchanged = skip
	}
}

// WithStormBudget bounds how many notifications one outermost write may
// deliver. Zero or a negative n disables the budget.
func WithStormBudget(n int) Option {
	return func(s *Store) {
		s.budget = n
	}
}
