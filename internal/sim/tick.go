package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relaychain-sim/internal/logging"
	"relaychain-sim/internal/telemetry"
)

// Run executes the configured number of ticks, paced by TickInterval, and
// stops early when the context is done.
func (s *Simulator) Run(ctx context.Context) Summary {
	log := logging.FromContext(ctx)
	log.Info("starting simulator", "run_id", s.runID, "ticks", s.cfg.Ticks, "tick_interval", s.cfg.TickInterval, "policy", s.manager.Policy().String())

	var tick <-chan time.Time
	if s.cfg.TickInterval > 0 {
		ticker := time.NewTicker(s.cfg.TickInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for s.cfg.Ticks == 0 || s.Tick() < s.cfg.Ticks {
		if tick != nil {
			select {
			case <-ctx.Done():
				return s.stopped(ctx)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return s.stopped(ctx)
		}
		if _, err := s.Step(ctx); err != nil {
			log.Error("write failed", "tick", s.Tick(), "err", err)
		}
	}

	sum := s.Summary()
	log.Info("simulation finished", "ticks", sum.Ticks, "relays", sum.Relays, "link_down_ticks", sum.LinkDownTicks)
	return sum
}

func (s *Simulator) stopped(ctx context.Context) Summary {
	sum := s.Summary()
	sum.Interrupted = true
	logging.FromContext(ctx).Info("stopping simulator", "tick", sum.Ticks)
	return sum
}

// Step runs one tick: move the mobile drone, deploy at most one relay,
// evaluate the chain and emit records. The returned error collects writer
// failures; a degraded link is reported through the status row instead.
func (s *Simulator) Step(ctx context.Context) (telemetry.StatusRow, error) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	s.tick++
	tick := s.tick
	step := s.cfg.Step
	if s.plan != nil {
		if st, ok := s.plan.StepAt(tick); ok {
			step = st
		}
	}
	s.manager.MoveMobile(step)
	hopBefore := s.manager.Chain().MobileHop()
	relay, metrics := s.manager.Step()
	ts := s.now().UTC()

	snap := s.buildSnapshot(tick, metrics, relay != nil, ts)
	s.snapshot = snap

	var deployment *telemetry.DeploymentRow
	if relay != nil {
		row := s.gen.Deployment(tick, s.manager.Chain(), relay, hopBefore, ts)
		deployment = &row
		s.logEvent(tick, EventRelayDeployed, relay.ID, fmt.Sprintf("%s at %s", relay.Name(), relay.Position), ts)
		log.Info("relay deployed", "tick", tick, "relay_id", relay.ID, "x", relay.Position.X, "y", relay.Position.Y, "relays", row.RelayCount)
	}

	changed := metrics.LinkDown != s.linkDown
	if changed {
		if metrics.LinkDown {
			s.logEvent(tick, EventLinkDown, 0, errString(metrics.Err), ts)
		} else {
			s.logEvent(tick, EventLinkRestored, 0, "", ts)
		}
	}
	if metrics.LinkDown {
		s.linkDownTicks++
		if changed {
			log.Warn("link down", "tick", tick, "err", metrics.Err)
		}
	} else if changed {
		log.Info("link restored", "tick", tick)
	}
	s.linkDown = metrics.LinkDown

	report := relay != nil || changed || (s.cfg.ReportEvery > 0 && tick%s.cfg.ReportEvery == 0)
	if report {
		s.reports++
	}
	s.mu.Unlock()

	var errs []error
	if deployment != nil && s.writers.Deployments != nil {
		if err := s.writers.Deployments.WriteDeployment(*deployment); err != nil {
			errs = append(errs, fmt.Errorf("deployment: %w", err))
		}
	}
	if report {
		if s.writers.Status != nil {
			if err := s.writers.Status.WriteStatus(snap.Status); err != nil {
				errs = append(errs, fmt.Errorf("status: %w", err))
			}
		}
		if s.writers.Links != nil && len(snap.Links) > 0 {
			if err := s.writers.Links.WriteLinks(snap.Links); err != nil {
				errs = append(errs, fmt.Errorf("links: %w", err))
			}
		}
	}
	return snap.Status, errors.Join(errs...)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
