package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/billbot/core/bootstrap"
	coreconfig "github.com/m3rciful/billbot/core/config"
	"github.com/m3rciful/billbot/internal/bills"
	"github.com/m3rciful/billbot/internal/flow"
	"github.com/m3rciful/billbot/internal/storage"
)

type replies struct {
	got []flow.Reply
}

func (r *replies) Reply(_ context.Context, rep flow.Reply) error {
	r.got = append(r.got, rep)
	return nil
}

func (r *replies) last() flow.Reply { return r.got[len(r.got)-1] }

func testConfig(t *testing.T, journalBackend string) *coreconfig.Config {
	t.Helper()
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{Token: "123:abc", AllowedUserIDs: "42"},
		Storage:  coreconfig.StorageConfig{Backend: coreconfig.StorageMemory},
		Journal: coreconfig.JournalConfig{
			Backend:  journalBackend,
			BoltPath: filepath.Join(t.TempDir(), "journal.db"),
		},
	}
	require.NoError(t, coreconfig.Normalize(cfg))
	return cfg
}

func build(t *testing.T, cfg *coreconfig.Config, client storage.Client) *App {
	t.Helper()
	a, err := BuildWith(context.Background(), cfg, BuildOptions{
		Bootstrap: bootstrap.Options{LoggerInit: func(*coreconfig.Config) error { return nil }},
		Storage:   client,
		Now:       func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestBuildWiresUploadAndHistory(t *testing.T) {
	mem := storage.NewMemory()
	a := build(t, testConfig(t, coreconfig.JournalBolt), mem)
	ctx := context.Background()
	r := &replies{}
	const uid = 42

	steps := []flow.Event{
		{Kind: flow.EventCommand, Command: flow.CommandUpload},
		{Kind: flow.EventCallback, Callback: flow.YearData(2024)},
		{Kind: flow.EventCallback, Callback: flow.MonthData(bills.March)},
		{Kind: flow.EventCallback, Callback: flow.CompanyData(bills.PowerCo)},
		{Kind: flow.EventCallback, Callback: flow.DocumentTypeData(bills.Receipt)},
		{Kind: flow.EventFile, File: &flow.File{
			Name:  "r.pdf",
			Size:  3,
			Fetch: func(context.Context) ([]byte, error) { return []byte("pdf"), nil },
		}},
	}
	for _, ev := range steps {
		ev.UserID = uid
		require.NoError(t, a.Machine().Handle(ctx, ev, r))
	}
	assert.Equal(t, flow.ReplyUploaded, r.last().Kind)
	data, ok := mem.Object("Bills/2024/March/PowerCo/Receipt.pdf")
	require.True(t, ok)
	assert.Equal(t, "pdf", string(data))

	require.NoError(t, a.Machine().Handle(ctx, flow.Event{UserID: uid, Kind: flow.EventCommand, Command: flow.CommandHistory}, r))
	hist := r.last()
	assert.Equal(t, flow.ReplyHistory, hist.Kind)
	require.Len(t, hist.History, 1)
	assert.Equal(t, "Bills/2024/March/PowerCo/Receipt.pdf", hist.History[0].Path)
}

func TestHistoryDisabledWithoutJournal(t *testing.T) {
	a := build(t, testConfig(t, coreconfig.JournalNone), storage.NewMemory())
	r := &replies{}
	require.NoError(t, a.Machine().Handle(context.Background(),
		flow.Event{UserID: 1, Kind: flow.EventCommand, Command: flow.CommandHistory}, r))
	assert.Equal(t, flow.ReplyHistoryDisabled, r.last().Kind)
}

func TestTelegramRunOptions(t *testing.T) {
	cfg := testConfig(t, coreconfig.JournalNone)
	cfg.RateLimit.IntervalMS = 500
	a := build(t, cfg, storage.NewMemory())

	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	assert.Same(t, cfg, opts.Config)
	require.NotNil(t, opts.Registry)
	assert.NotEmpty(t, opts.Routes)

	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	assert.Equal(t, []string{"recover", "allow_list", "rate_limit", "logger", "metrics"}, names)

	_, _, ok := opts.Registry.LookupCommand("/upload")
	assert.True(t, ok)
}

func TestBuildRejectsNilConfig(t *testing.T) {
	_, err := Build(context.Background(), nil)
	assert.Error(t, err)
}
