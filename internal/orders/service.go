package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/observability"
	"github.com/tradedesk/tradedesk/internal/platform/cache"
	"github.com/tradedesk/tradedesk/internal/shared"
)

// StatsWarmer schedules an asynchronous recompute of the cached statistics.
type StatsWarmer interface {
	EnqueueStatsWarm(ctx context.Context, reason string) error
}

// Options carries the optional collaborators of Service.
type Options struct {
	Stats        *cache.Versioned
	Warmer       StatsWarmer
	Events       Publisher
	Metrics      *observability.Metrics
	Logger       *slog.Logger
	PDF          PDFRenderer
	EnforceStock bool
}

// Service implements order use cases.
type Service struct {
	repo         Repository
	stats        *cache.Versioned
	warmer       StatsWarmer
	events       Publisher
	metrics      *observability.Metrics
	logger       *slog.Logger
	pdf          PDFRenderer
	enforceStock bool
	now          func() time.Time
}

// NewService constructs the order service.
func NewService(repo Repository, opts Options) *Service {
	s := &Service{
		repo:         repo,
		stats:        opts.Stats,
		warmer:       opts.Warmer,
		events:       opts.Events,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		pdf:          opts.PDF,
		enforceStock: opts.EnforceStock,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Create validates sub and stores a new pending order placed by p.
func (s *Service) Create(ctx context.Context, p shared.Principal, sub Submission) (order Order, err error) {
	defer func() { s.metrics.ObserveMutation("create", err) }()
	if err := sub.Validate(); err != nil {
		return Order{}, err
	}

	o := Order{
		ID:        uuid.New(),
		Type:      sub.Type,
		Status:    StatusPending,
		Customer:  Ref{ID: sub.Customer},
		CreatedAt: s.now(),
	}
	if sub.Cargo != nil {
		o.Cargo = &Ref{ID: *sub.Cargo}
	}
	o.CreatedByType = CreatorSalesman
	if p.IsAdmin() {
		o.CreatedByType = CreatorAdmin
	}
	if p.ID != uuid.Nil {
		o.CreatedBy = &Ref{ID: p.ID, Name: p.Name}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := s.checkReferences(ctx, tx, sub); err != nil {
			return err
		}
		return tx.Insert(ctx, o, sub.Items)
	})
	if err != nil {
		return Order{}, err
	}

	order, err = s.repo.Get(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	s.changed(ctx, "order created")
	s.publish(ctx, Event{Name: EventCreated, OrderID: order.ID, Order: &order, To: order.Status, Actor: p.Username})
	return order, nil
}

// Update replaces type, customer, cargo and lines of an order. The status is
// left alone.
func (s *Service) Update(ctx context.Context, p shared.Principal, id uuid.UUID, sub Submission) (order Order, err error) {
	defer func() { s.metrics.ObserveMutation("update", err) }()
	if err := sub.Validate(); err != nil {
		return Order{}, err
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := s.checkReferences(ctx, tx, sub); err != nil {
			return err
		}
		return tx.Update(ctx, id, sub)
	})
	if err != nil {
		return Order{}, err
	}

	order, err = s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	s.changed(ctx, "order updated")
	s.publish(ctx, Event{Name: EventUpdated, OrderID: id, Order: &order, Actor: p.Username})
	return order, nil
}

// Transition moves an order to requested, which must be the successor of the
// stored status. The stored status is read under a row lock so two identical
// requests cannot both succeed.
func (s *Service) Transition(ctx context.Context, p shared.Principal, id uuid.UUID, requested Status) (order Order, err error) {
	defer func() { s.metrics.ObserveTransition(transitionLabel(requested), err) }()

	var from Status
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		current, err := tx.LockStatus(ctx, id)
		if err != nil {
			return err
		}
		if err := CheckTransition(current, requested); err != nil {
			return err
		}
		from = current
		return tx.SetStatus(ctx, id, requested)
	})
	if err != nil {
		return Order{}, err
	}

	order, err = s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	s.changed(ctx, "order status changed")
	s.publish(ctx, Event{Name: EventStatusChanged, OrderID: id, Order: &order, From: from, To: requested, Actor: p.Username})
	return order, nil
}

// Delete removes an order permanently.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) (err error) {
	defer func() { s.metrics.ObserveMutation("delete", err) }()
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, "order deleted")
	s.publish(ctx, Event{Name: EventDeleted, OrderID: id, Actor: p.Username})
	return nil
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns orders matching f, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Order, error) {
	return s.repo.List(ctx, f)
}

// Stats returns dashboard statistics, served from the versioned cache when
// possible.
func (s *Service) Stats(ctx context.Context) (stats Stats, err error) {
	defer func() { s.metrics.ObserveStats(err) }()
	now := s.now()
	key, err := s.stats.Key(ctx, "dashboard", now.Format("2006-01"))
	if err != nil {
		s.logger.Warn("stats cache unavailable", slog.Any("error", err))
		return s.computeStats(ctx, now)
	}
	err = s.stats.Fetch(ctx, key, &stats, func(ctx context.Context) (any, error) {
		return s.computeStats(ctx, now)
	})
	return stats, err
}

// WarmStats recomputes the statistics into the cache.
func (s *Service) WarmStats(ctx context.Context) error {
	_, err := s.Stats(ctx)
	return err
}

// InvalidateStats drops cached statistics and schedules a warm-up. Master
// data changes call it.
func (s *Service) InvalidateStats(ctx context.Context) {
	s.changed(ctx, "master data changed")
}

func (s *Service) computeStats(ctx context.Context, now time.Time) (Stats, error) {
	snap, err := s.repo.Snapshot(ctx, TrendWindow(now)[0])
	if err != nil {
		return Stats{}, err
	}
	return BuildStats(snap, now), nil
}

func (s *Service) checkReferences(ctx context.Context, tx Repository, sub Submission) error {
	verr := shared.NewValidationError()

	blocked, err := tx.CustomerBlocked(ctx, sub.Customer)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		verr.Add("customerName", "Customer not found")
	case err != nil:
		return err
	case blocked:
		return ErrCustomerBlocked
	}

	if sub.Cargo != nil {
		ok, err := tx.CargoExists(ctx, *sub.Cargo)
		if err != nil {
			return err
		}
		if !ok {
			verr.Add("cargo", "Cargo not found")
		}
	}

	ids := make([]uuid.UUID, len(sub.Items))
	for i, l := range sub.Items {
		ids[i] = l.Item
	}
	stock, err := tx.ItemStock(ctx, ids)
	if err != nil {
		return err
	}
	for _, l := range sub.Items {
		available, ok := stock[l.Item]
		if !ok {
			verr.Add("items", "Item not found")
			break
		}
		if s.enforceStock && sub.Type == TypeSell && l.Quantity > available {
			verr.Add("items", fmt.Sprintf("Only %d in stock for one of the items", available))
			break
		}
	}
	return verr.OrNil()
}

func (s *Service) changed(ctx context.Context, reason string) {
	if err := s.stats.Bump(ctx); err != nil {
		s.logger.Warn("bump stats cache", slog.Any("error", err))
	}
	if s.warmer == nil {
		return
	}
	if err := s.warmer.EnqueueStatsWarm(ctx, reason); err != nil {
		s.logger.Warn("enqueue stats warm", slog.String("reason", reason), slog.Any("error", err))
	}
}

// transitionLabel bounds the metric label to the known statuses.
func transitionLabel(requested Status) string {
	if requested.Valid() {
		return string(requested)
	}
	return "invalid"
}

func (s *Service) publish(ctx context.Context, ev Event) {
	ev.ID = uuid.New()
	ev.OccurredAt = s.now()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Error("publish order event",
			slog.String("event", ev.Name),
			slog.String("order_id", ev.OrderID.String()),
			slog.Any("error", err))
	}
}
