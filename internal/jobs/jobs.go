// Package jobs holds the periodic CRM tasks: a heartbeat, a weekly report
// and the order reminders. Each job appends its lines to its own log file.
package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/safar/crm-store/internal/config"
	"github.com/safar/crm-store/internal/crmclient"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	heartbeatLayout = "02/01/2006-15:04:05"
	stampLayout     = "2006-01-02 15:04:05"
)

// API is the part of the CRM API the jobs read.
type API interface {
	Hello(ctx context.Context) (string, error)
	CountCustomers(ctx context.Context) (int, error)
	ListOrders(ctx context.Context, since *time.Time) ([]crmclient.Order, error)
}

type Runner struct {
	api API
	cfg config.JobsConfig
	log logrus.FieldLogger
	now func() time.Time
}

type Option func(*Runner)

func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

func NewRunner(api API, cfg config.JobsConfig, log logrus.FieldLogger, opts ...Option) *Runner {
	r := &Runner{api: api, cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// appendLines opens path for append, writes lines and closes it again.
func appendLines(path string, lines ...string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Heartbeat records that the process is alive together with the outcome of
// a hello query. A failed query is part of the line, not an error.
func (r *Runner) Heartbeat(ctx context.Context) error {
	line := r.now().Format(heartbeatLayout) + " CRM is alive"

	hello, err := r.api.Hello(ctx)
	if err != nil {
		r.log.WithError(err).Warn("heartbeat query failed")
		line += " | GraphQL check failed: " + err.Error()
	} else {
		line += " | GraphQL says: " + hello
	}

	return appendLines(r.cfg.HeartbeatLog, line)
}

// Report appends customer and order counts and the revenue over all
// orders.
func (r *Runner) Report(ctx context.Context) error {
	var (
		customers int
		orders    []crmclient.Order
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.api.CountCustomers(gctx)
		if err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		customers = n
		return nil
	})
	g.Go(func() error {
		list, err := r.api.ListOrders(gctx, nil)
		if err != nil {
			return fmt.Errorf("list orders: %w", err)
		}
		orders = list
		return nil
	})
	if err := g.Wait(); err != nil {
		r.log.WithError(err).Error("crm report failed")
		return err
	}

	revenue := decimal.Zero
	for _, o := range orders {
		revenue = revenue.Add(o.TotalAmount)
	}

	line := fmt.Sprintf("%s - Report: %d customers, %d orders, %s revenue",
		r.now().Format(stampLayout), customers, len(orders), revenue.StringFixed(2))
	r.log.WithField("report", line).Info("crm report generated")

	return appendLines(r.cfg.ReportLog, line)
}

// Reminders appends one line per order placed within the reminder window.
// A failed query is logged to the same file and returned.
func (r *Runner) Reminders(ctx context.Context) error {
	now := r.now()
	since := now.Add(-r.cfg.ReminderWindow)
	stamp := now.Format(stampLayout)

	orders, err := r.api.ListOrders(ctx, &since)
	if err != nil {
		r.log.WithError(err).Error("order reminders failed")
		if werr := appendLines(r.cfg.RemindersLog, fmt.Sprintf("%s - ERROR: GraphQL query failed: %v", stamp, err)); werr != nil {
			r.log.WithError(werr).Error("write reminders log")
		}
		return fmt.Errorf("list recent orders: %w", err)
	}

	if len(orders) == 0 {
		return appendLines(r.cfg.RemindersLog, stamp+" - No recent orders found")
	}

	lines := make([]string, 0, len(orders))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("%s - Order ID: %s, Date: %s, Customer: %s (%s), Amount: $%s",
			stamp, o.ID, o.OrderDate.Format(time.RFC3339), o.Customer.Name, o.Customer.Email, o.TotalAmount.StringFixed(2)))
	}
	r.log.WithField("orders", len(orders)).Info("order reminders processed")

	return appendLines(r.cfg.RemindersLog, lines...)
}
