package sim

import (
	"github.com/san-kum/unimpc/internal/dynamo"
	log "github.com/sirupsen/logrus"
)

// LogObserver traces every tick at debug level.
type LogObserver struct {
	Every int
	n     int
}

func (o *LogObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	o.n++
	if len(x) < 3 {
		return
	}
	if o.Every > 1 && o.n%o.Every != 1 {
		return
	}
	fields := log.Fields{"t": t, "x": x[0], "y": x[1], "theta": x[2]}
	if len(u) >= 2 {
		fields["v"] = u[0]
		fields["omega"] = u[1]
	}
	log.WithFields(fields).Debug("tick")
}
