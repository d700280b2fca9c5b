package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/safar/crm-store/internal/config"
	"github.com/safar/crm-store/internal/crmclient"
	"github.com/safar/crm-store/internal/jobs"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 5, 0, time.UTC)

type fakeAPI struct {
	hello     string
	customers int
	orders    []crmclient.Order
	err       error
	since     *time.Time
}

func (f *fakeAPI) Hello(context.Context) (string, error) { return f.hello, f.err }

func (f *fakeAPI) CountCustomers(context.Context) (int, error) { return f.customers, f.err }

func (f *fakeAPI) ListOrders(_ context.Context, since *time.Time) ([]crmclient.Order, error) {
	f.since = since
	return f.orders, f.err
}

func newRunner(t *testing.T, api jobs.API) (*jobs.Runner, config.JobsConfig) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.JobsConfig{
		HeartbeatLog:      filepath.Join(dir, "heartbeat.txt"),
		ReportLog:         filepath.Join(dir, "report.txt"),
		RemindersLog:      filepath.Join(dir, "reminders.txt"),
		HeartbeatSchedule: "*/5 * * * *",
		ReportSchedule:    "0 6 * * 1",
		RemindersSchedule: "0 8 * * *",
		ReminderWindow:    7 * 24 * time.Hour,
	}
	logger, _ := test.NewNullLogger()
	return jobs.NewRunner(api, cfg, logger, jobs.WithClock(func() time.Time { return fixedNow })), cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func sampleOrders() []crmclient.Order {
	return []crmclient.Order{
		{
			ID:          "2",
			OrderDate:   time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("25"),
			Customer:    crmclient.Customer{Name: "Alice", Email: "alice@example.com"},
		},
		{
			ID:          "1",
			OrderDate:   time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			TotalAmount: decimal.RequireFromString("999.99"),
			Customer:    crmclient.Customer{Name: "Bob", Email: "bob@example.com"},
		},
	}
}

func TestHeartbeat(t *testing.T) {
	t.Run("Alive", func(t *testing.T) {
		r, cfg := newRunner(t, &fakeAPI{hello: "Hello, GraphQL!"})
		require.NoError(t, r.Heartbeat(context.Background()))
		require.NoError(t, r.Heartbeat(context.Background()))

		lines := readLines(t, cfg.HeartbeatLog)
		require.Len(t, lines, 2)
		assert.Equal(t, "14/03/2025-09:30:05 CRM is alive | GraphQL says: Hello, GraphQL!", lines[0])
	})

	t.Run("API down", func(t *testing.T) {
		r, cfg := newRunner(t, &fakeAPI{err: errors.New("connection refused")})
		require.NoError(t, r.Heartbeat(context.Background()))

		assert.Equal(t, []string{"14/03/2025-09:30:05 CRM is alive | GraphQL check failed: connection refused"},
			readLines(t, cfg.HeartbeatLog))
	})
}

func TestReport(t *testing.T) {
	r, cfg := newRunner(t, &fakeAPI{customers: 3, orders: sampleOrders()})
	require.NoError(t, r.Report(context.Background()))

	assert.Equal(t, []string{"2025-03-14 09:30:05 - Report: 3 customers, 2 orders, 1024.99 revenue"},
		readLines(t, cfg.ReportLog))

	t.Run("Failure writes nothing", func(t *testing.T) {
		r, cfg := newRunner(t, &fakeAPI{err: errors.New("boom")})
		require.Error(t, r.Report(context.Background()))
		_, err := os.Stat(cfg.ReportLog)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestReminders(t *testing.T) {
	t.Run("Recent orders", func(t *testing.T) {
		api := &fakeAPI{orders: sampleOrders()}
		r, cfg := newRunner(t, api)
		require.NoError(t, r.Reminders(context.Background()))

		require.NotNil(t, api.since)
		assert.True(t, api.since.Equal(fixedNow.Add(-7*24*time.Hour)))
		assert.Equal(t, []string{
			"2025-03-14 09:30:05 - Order ID: 2, Date: 2025-03-12T08:00:00Z, Customer: Alice (alice@example.com), Amount: $25.00",
			"2025-03-14 09:30:05 - Order ID: 1, Date: 2025-03-10T08:00:00Z, Customer: Bob (bob@example.com), Amount: $999.99",
		}, readLines(t, cfg.RemindersLog))
	})

	t.Run("No orders", func(t *testing.T) {
		r, cfg := newRunner(t, &fakeAPI{})
		require.NoError(t, r.Reminders(context.Background()))
		assert.Equal(t, []string{"2025-03-14 09:30:05 - No recent orders found"}, readLines(t, cfg.RemindersLog))
	})

	t.Run("Query failure", func(t *testing.T) {
		r, cfg := newRunner(t, &fakeAPI{err: errors.New("timeout")})
		require.Error(t, r.Reminders(context.Background()))
		assert.Equal(t, []string{"2025-03-14 09:30:05 - ERROR: GraphQL query failed: timeout"}, readLines(t, cfg.RemindersLog))
	})
}

func TestNewScheduler(t *testing.T) {
	r, _ := newRunner(t, &fakeAPI{})
	s, err := jobs.NewScheduler(r)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Entries())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewSchedulerRejectsBadSpec(t *testing.T) {
	logger, _ := test.NewNullLogger()
	r := jobs.NewRunner(&fakeAPI{}, config.JobsConfig{HeartbeatSchedule: "every now and then"}, logger)
	_, err := jobs.NewScheduler(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heartbeat")
}
