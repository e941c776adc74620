package repository

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithCapacityHint pre-sizes the store for an expected competitor count.
func WithCapacityHint(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.byID = make(map[string]record, n)
		}
	}
}
