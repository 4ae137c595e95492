package journal

import (
	"context"
	"os"
	"reflect"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/billbot/core/config"
	coredatabase "github.com/m3rciful/billbot/core/database"
	"github.com/m3rciful/billbot/internal/bills"
)

func entryColumns(t *testing.T) []string {
	t.Helper()
	typ := reflect.TypeOf(Entry{})
	cols := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		cols = append(cols, typ.Field(i).Tag.Get("db"))
	}
	return cols
}

func TestInsertEntryBindsEveryColumn(t *testing.T) {
	e := NewEntry(42, bills.Metadata{Year: 2024, Month: bills.March, Company: bills.CityWater, DocumentType: bills.Receipt},
		"Bills/2024/March/City_Water/Receipt.pdf", OutcomeFailed)
	e.Reason = "disk quota exceeded"
	e.Bytes = 1024

	query, args, err := sqlx.Named(insertEntry, e)
	require.NoError(t, err)
	assert.NotContains(t, query, ":")

	want := []any{
		e.AttemptID, e.UserID, e.Year, e.Month, e.Company, e.DocumentType,
		e.Path, e.Outcome, e.Reason, e.Bytes, e.CreatedAt,
	}
	assert.Equal(t, want, args)

	names := regexp.MustCompile(`:(\w+)`).FindAllStringSubmatch(insertEntry, -1)
	var bound []string
	for _, m := range names {
		bound = append(bound, m[1])
	}
	assert.Equal(t, entryColumns(t), bound)
}

func TestSelectRecentScansIntoEntry(t *testing.T) {
	start := strings.Index(selectRecent, "SELECT") + len("SELECT")
	end := strings.Index(selectRecent, "FROM")
	var cols []string
	for _, c := range strings.Split(selectRecent[start:end], ",") {
		cols = append(cols, strings.TrimSpace(c))
	}
	assert.Equal(t, entryColumns(t), cols)
}

// Runs against a real server when JOURNAL_PG_TEST=1; connection settings
// come from the DB_* variables.
func TestPostgresRecordRecent(t *testing.T) {
	if os.Getenv("JOURNAL_PG_TEST") != "1" {
		t.Skip("set JOURNAL_PG_TEST=1 and DB_* to run against postgres")
	}
	var cfg config.DatabaseConfig
	require.NoError(t, envconfig.Process("", &cfg))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, coredatabase.RunMigrations(ctx, cfg))
	db, err := coredatabase.Connect(ctx, cfg)
	require.NoError(t, err)
	j := NewPostgres(db)
	defer j.Close()

	userID := time.Now().UnixNano()
	defer func() {
		_, _ = db.ExecContext(context.Background(), `DELETE FROM upload_journal WHERE user_id = $1`, userID)
	}()

	meta := bills.Metadata{Year: 2024, Month: bills.March, Company: bills.PowerCo, DocumentType: bills.Invoice}
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, outcome := range []string{OutcomeUploaded, OutcomeOverwritten} {
		e := NewEntry(userID, meta, "Bills/2024/March/PowerCo/Invoice.pdf", outcome)
		e.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, j.Record(ctx, e))
	}

	got, err := j.Recent(ctx, userID, 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, OutcomeOverwritten, got[0].Outcome)
	assert.Equal(t, bills.March, got[0].Month)
	assert.Equal(t, bills.PowerCo, got[0].Company)
	assert.True(t, base.Add(time.Minute).Equal(got[0].CreatedAt))
}
