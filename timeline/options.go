package timeline

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets how many posts each request asks for (1..40).
func WithPageSize(n int) Option {
	return func(s *Store) {
		switch {
		case n <= 0:
			s.pageSize = defaultPageSize
		case n > maxPageSize:
			s.pageSize = maxPageSize
		default:
			s.pageSize = n
		}
	}
}

// WithMaxRefreshPages bounds how many newer pages one refresh walks.
func WithMaxRefreshPages(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxRefreshPages = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l.With(slog.String("component", "timeline"))
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithListener registers the completion callback.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listener = l }
}
