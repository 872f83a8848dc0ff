package analytics

// Option configures a rollup.
type Option func(*options)

type options struct {
	excluded map[string]struct{}
}

// WithExcludedAccounts removes the given accounts from every count, together
// with their subscriptions, their activity and the requests they authored.
func WithExcludedAccounts(ids ...string) Option {
	return func(o *options) {
		if o.excluded == nil {
			o.excluded = make(map[string]struct{}, len(ids))
		}
		for _, id := range ids {
			if id != "" {
				o.excluded[id] = struct{}{}
			}
		}
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o options) excludes(accountID string) bool {
	_, ok := o.excluded[accountID]
	return ok
}
