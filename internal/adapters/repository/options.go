package repository

const defaultMaxLimit = 1000

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxLimit caps the n accepted by TopN.
func WithMaxLimit(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMinAttempts sets a floor applied to every TopN attempts filter.
func WithMinAttempts(n int64) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.minAttempts = n
		}
	}
}
