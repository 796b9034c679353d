package health

import "context"

// DBPinger checks entity store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexProbe checks that the search index answers.
type IndexProbe interface {
	DocCount() (uint64, error)
}
