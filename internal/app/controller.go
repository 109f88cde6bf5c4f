// Package app wires the cursor, catalog, day sync and aggregator together
// and owns the state the presentation layer renders: the current day, the
// last category list, the monthly total and the pending notices.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"homeledger/internal/catalog"
	"homeledger/internal/core"
	"homeledger/internal/ledger"
	"homeledger/internal/report"
)

// Publisher emits day-saved events after a successful save. Optional; a nil
// publisher disables eventing without affecting ledger consistency.
type Publisher interface {
	PublishDaySaved(ctx context.Context, date string) error
}

// Notice is a dismissable, non-fatal message surfaced to the user.
type Notice struct {
	ID      int       `json:"id"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

type Controller struct {
	catalog   *catalog.Catalog
	day       *ledger.DaySync
	monthly   *report.MonthlyAggregator
	publisher Publisher

	mu           sync.Mutex
	cursor       *core.Cursor
	categories   []core.Category
	monthCents   int64
	notices      []Notice
	nextNoticeID int
}

func NewController(cur *core.Cursor, cat *catalog.Catalog, day *ledger.DaySync, monthly *report.MonthlyAggregator, pub Publisher) *Controller {
	return &Controller{
		cursor:    cur,
		catalog:   cat,
		day:       day,
		monthly:   monthly,
		publisher: pub,
	}
}

// Refresh loads the category list, the current day's entries and the
// monthly total concurrently. Store failures never abort the other loads;
// each becomes a dismissable notice while the previous value stays visible.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	day := c.cursor.Key()
	current := c.cursor.Current()
	c.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		cats, err := c.catalog.List(ctx)
		c.mu.Lock()
		c.categories = cats
		c.mu.Unlock()
		if err != nil {
			c.addNotice("warn", "Categories could not be refreshed")
		}
		return nil
	})
	g.Go(func() error {
		if err := c.day.Load(ctx, day); err != nil {
			c.addNotice("warn", fmt.Sprintf("Entries for %s could not be loaded", day))
		}
		return nil
	})
	g.Go(func() error {
		total, err := c.monthly.ComputeTotal(ctx, current)
		c.mu.Lock()
		c.monthCents = total
		c.mu.Unlock()
		if err != nil {
			c.addNotice("warn", "Monthly total could not be refreshed")
		}
		return nil
	})
	return g.Wait()
}

// Navigate moves the current day by deltaDays and reloads it. The monthly
// total is recomputed only when the move crosses into a different month.
func (c *Controller) Navigate(ctx context.Context, deltaDays int) error {
	c.mu.Lock()
	prev := c.cursor.Current()
	next := c.cursor.Navigate(deltaDays)
	day := c.cursor.Key()
	c.mu.Unlock()

	if err := c.day.Load(ctx, day); err != nil {
		c.addNotice("warn", fmt.Sprintf("Entries for %s could not be loaded", day))
		return err
	}
	if !core.SameMonth(prev, next) {
		c.recomputeMonth(ctx, next)
	}
	return nil
}

// SetDate jumps the cursor to an arbitrary day and reloads state like
// Navigate does.
func (c *Controller) SetDate(ctx context.Context, t time.Time) error {
	c.mu.Lock()
	prev := c.cursor.Current()
	c.cursor = core.NewCursor(t)
	day := c.cursor.Key()
	c.mu.Unlock()

	if err := c.day.Load(ctx, day); err != nil {
		c.addNotice("warn", fmt.Sprintf("Entries for %s could not be loaded", day))
		return err
	}
	if !core.SameMonth(prev, t) {
		c.recomputeMonth(ctx, t)
	}
	return nil
}

// Edit records a raw amount string for a category on the current day.
func (c *Controller) Edit(categoryID, rawValue string) error {
	return c.day.Edit(categoryID, rawValue)
}

// Save persists the current day's edits, then — strictly after the save has
// resolved — publishes the day-saved event and recomputes the monthly
// total, so the aggregator never reads a transient half-replaced day.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	day := c.cursor.Key()
	current := c.cursor.Current()
	c.mu.Unlock()

	if err := c.day.Save(ctx); err != nil {
		switch {
		case errors.Is(err, core.ErrNothingToSave):
			// Local rejection, no store mutation happened.
		case isPartialSave(err):
			c.addNotice("error", fmt.Sprintf("Save for %s failed midway; the day is empty until the next save succeeds", day))
		default:
			c.addNotice("warn", fmt.Sprintf("Save for %s failed; your edits are kept", day))
		}
		return err
	}

	if c.publisher != nil {
		if err := c.publisher.PublishDaySaved(ctx, day); err != nil {
			// The ledger is consistent; the export event is best-effort.
			slog.ErrorContext(ctx, "Failed to publish day-saved event", "date", day, "error", err)
		}
	}

	c.recomputeMonth(ctx, current)
	return nil
}

// AddCategory appends a new category and refreshes the owned list.
func (c *Controller) AddCategory(ctx context.Context, name string) (core.Category, error) {
	cat, err := c.catalog.Add(ctx, name)
	if err != nil {
		if !errors.Is(err, core.ErrEmptyName) {
			c.addNotice("warn", "Category could not be added")
		}
		return core.Category{}, err
	}
	c.mu.Lock()
	c.categories = append(c.categories, cat)
	c.mu.Unlock()
	return cat, nil
}

// CurrentDay returns the canonical key of the day being edited.
func (c *Controller) CurrentDay() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Key()
}

// Categories returns the owned category list.
func (c *Controller) Categories() []core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Category(nil), c.categories...)
}

// Inputs returns the current day's editable state.
func (c *Controller) Inputs() core.DayInput {
	return c.day.Inputs()
}

// DayState returns the sync lifecycle state of the current day.
func (c *Controller) DayState() ledger.State {
	return c.day.State()
}

// DailyTotalCents is the running total of the form as typed, a pure
// function of the input state.
func (c *Controller) DailyTotalCents() int64 {
	return c.day.Inputs().TotalCents()
}

// MonthTotalCents returns the owned monthly total.
func (c *Controller) MonthTotalCents() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.monthCents
}

// Notices returns the pending notices, oldest first.
func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

// Dismiss drops the notice with the given id.
func (c *Controller) Dismiss(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, n := range c.notices {
		if n.ID == id {
			c.notices = append(c.notices[:i], c.notices[i+1:]...)
			return
		}
	}
}

func (c *Controller) recomputeMonth(ctx context.Context, d time.Time) {
	total, err := c.monthly.ComputeTotal(ctx, d)
	c.mu.Lock()
	c.monthCents = total
	c.mu.Unlock()
	if err != nil {
		c.addNotice("warn", "Monthly total could not be refreshed")
	}
}

func (c *Controller) addNotice(level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextNoticeID++
	c.notices = append(c.notices, Notice{
		ID:      c.nextNoticeID,
		Level:   level,
		Message: message,
		Time:    time.Now(),
	})
}

func isPartialSave(err error) bool {
	var pse *ledger.PartialSaveError
	return errors.As(err, &pse)
}
