// Package media is the seam to the external media-storage collaborator. The
// core only ever sees stored URLs: uploads happen upstream, and deletes hand
// the harvested URLs of a removed thread to a Purger.
package media

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// Purger removes stored media objects by URL.
type Purger interface {
	Purge(ctx context.Context, urls []string)
}

// LogPurger is the default Purger: it records what would be removed and drops
// it. The real storage collaborator replaces it at wiring time.
type LogPurger struct{}

// NewLogPurger creates a new LogPurger
func NewLogPurger() *LogPurger {
	return &LogPurger{}
}

func (p *LogPurger) Purge(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	log.WithField("count", len(urls)).Info("media purge requested")
}
