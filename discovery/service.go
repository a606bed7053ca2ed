package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/yanet-platform/lpm"
)

// Service mirrors the kernel routing table into an LPM table. It is the
// only writer of the table; readers may call Search concurrently.
type Service struct {
	table  *lpm.Table[Nexthop]
	family int
	log    *zap.SugaredLogger
}

// NewService returns a service feeding the given table. family selects the
// address family to mirror (netlink.FAMILY_V4, FAMILY_V6 or FAMILY_ALL).
func NewService(table *lpm.Table[Nexthop], family int, log *zap.SugaredLogger) *Service {
	return &Service{
		table:  table,
		family: family,
		log:    log,
	}
}

// Run seeds the table from the current kernel state and applies route
// updates until the context is cancelled. Subscription failures are retried
// with exponential backoff.
func (m *Service) Run(ctx context.Context) error {
	bo := backoff.ExponentialBackOff{
		InitialInterval:     backoff.DefaultInitialInterval,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         time.Minute,
	}
	bo.Reset()

	for {
		err := m.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warnw("kernel route subscription lost, retrying", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(bo.NextBackOff()):
		}
	}
}

func (m *Service) runOnce(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)

	updates := make(chan netlink.RouteUpdate, 1024)
	subErr := make(chan error, 1)

	opts := netlink.RouteSubscribeOptions{
		ErrorCallback: func(err error) {
			select {
			case subErr <- err:
			default:
			}
		},
	}
	if err := netlink.RouteSubscribeWithOptions(updates, done, opts); err != nil {
		return fmt.Errorf("failed to subscribe to route updates: %w", err)
	}

	// Subscribe before listing so updates racing the snapshot are replayed
	// on top of it rather than lost.
	if err := m.seed(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-subErr:
			return fmt.Errorf("route subscription error: %w", err)
		case update, ok := <-updates:
			if !ok {
				return errors.New("route update channel closed")
			}
			m.apply(update)
		}
	}
}

func (m *Service) seed() error {
	routes, err := netlink.RouteList(nil, m.family)
	if err != nil {
		return fmt.Errorf("failed to list kernel routes: %w", err)
	}

	count := 0
	for _, route := range routes {
		if m.addRoute(route) {
			count++
		}
	}

	m.log.Infof("seeded %d routes from kernel", count)

	return nil
}

func (m *Service) apply(update netlink.RouteUpdate) {
	switch update.Type {
	case unix.RTM_NEWROUTE:
		m.addRoute(update.Route)
	case unix.RTM_DELROUTE:
		m.delRoute(update.Route)
	default:
		m.log.Debugf("ignoring route update of type %d", update.Type)
	}
}

func (m *Service) addRoute(route netlink.Route) bool {
	prefix, nh, ok := routeEntry(route)
	if !ok {
		return false
	}

	err := m.table.AddPrefix(prefix, nh)
	switch {
	case errors.Is(err, lpm.ErrConflict):
		// The kernel replaced the nexthop in place.
		err = m.table.UpdatePrefix(prefix, nh)
	case errors.Is(err, lpm.ErrExists):
		return true
	}
	if err != nil {
		m.log.Warnw("failed to store route",
			zap.Stringer("prefix", prefix),
			zap.Stringer("nexthop", nh),
			zap.Error(err),
		)
		return false
	}

	// A native ::/0 lives in the binary trie root only; promote it so
	// lookups fall back to it.
	if prefix.Bits() == 0 && prefix.Addr().Is6() && !prefix.Addr().Is4In6() {
		if err := m.table.UpdateDefaultPrefix(prefix); err != nil {
			m.log.Warnw("failed to promote default route", zap.Error(err))
		}
	}

	m.log.Debugw("stored route",
		zap.Stringer("prefix", prefix),
		zap.Stringer("nexthop", nh),
	)

	return true
}

func (m *Service) delRoute(route netlink.Route) {
	prefix, _, ok := routeEntry(route)
	if !ok {
		return
	}

	if prefix.Bits() == 0 && prefix.Addr().Is6() && !prefix.Addr().Is4In6() {
		// Unpin the default slot before the payload goes away.
		if err := m.table.DeleteDefault(); err != nil && !errors.Is(err, lpm.ErrNotFound) {
			m.log.Warnw("failed to clear default route", zap.Error(err))
		}
	}

	err := m.table.DeletePrefix(prefix)
	if errors.Is(err, lpm.ErrNotFound) {
		m.log.Debugw("route to delete was not stored", zap.Stringer("prefix", prefix))
		return
	}
	if err != nil {
		m.log.Warnw("failed to delete route", zap.Stringer("prefix", prefix), zap.Error(err))
		return
	}

	m.log.Debugw("deleted route", zap.Stringer("prefix", prefix))
}
