package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/CrackedOnTiti/AREA/internal/store"
)

// timeMatchesChecker fires when the wall-clock minute in the workflow's
// timezone equals the configured HH:MM. A 60-second self-lockout on
// lastTriggered stops the same minute from firing on every tick when the
// cadence is below a minute.
type timeMatchesChecker struct {
	clock    Clock
	fallback *time.Location
}

func (c *timeMatchesChecker) Check(_ context.Context, w store.Workflow) Outcome {
	target := stringConfig(w.ActionConfig, "time")
	if target == "" {
		return Outcome{Err: "missing time in action config"}
	}

	loc := c.fallback
	if name := stringConfig(w.ActionConfig, "timezone"); name != "" {
		if l, err := time.LoadLocation(name); err == nil {
			loc = l
		}
	}

	now := c.clock.Now().In(loc)
	if now.Format("15:04") != target {
		return Outcome{}
	}
	if w.LastTriggered.Valid && now.Sub(w.LastTriggered.Time) < time.Minute {
		return Outcome{}
	}
	return Outcome{Fired: true}
}

// intervalElapsedChecker fires once the configured number of minutes has
// passed since the last trigger, or immediately when the workflow never
// fired.
type intervalElapsedChecker struct {
	clock Clock
}

func (c *intervalElapsedChecker) Check(_ context.Context, w store.Workflow) Outcome {
	minutes, ok := intConfig(w.ActionConfig, "interval_minutes")
	if !ok || minutes < 1 {
		return Outcome{Err: "missing or invalid interval_minutes in action config"}
	}

	metadata := fmt.Sprintf("Interval elapsed (%d min)", minutes)
	if !w.LastTriggered.Valid {
		return Outcome{Fired: true, Metadata: metadata}
	}
	if c.clock.Now().Sub(w.LastTriggered.Time) >= time.Duration(minutes)*time.Minute {
		return Outcome{Fired: true, Metadata: metadata}
	}
	return Outcome{}
}
