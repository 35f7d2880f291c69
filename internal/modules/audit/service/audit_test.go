package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"hedge_bot/internal/models"
	params "hedge_bot/internal/modules/params/service"
	"hedge_bot/pkg/db"
)

type execCall struct {
	sql  string
	args []any
}

type fakeTx struct {
	execs []execCall
	err   error
}

func (f *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func (f *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (f *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row        { return nil }

type fakeTxManager struct{ tx *fakeTx }

func (m *fakeTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	return fn(ctx, m.tx)
}

type memSink struct{ recs []Record }

func (s *memSink) Write(_ context.Context, rec Record) error {
	s.recs = append(s.recs, rec)
	return nil
}

func TestRecorderCarriesOperator(t *testing.T) {
	sink := &memSink{}
	r := NewRecorder(sink, zap.NewNop())
	at := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return at }

	next := models.DefaultParameters()
	next.Instruments = []string{"BTCUSDT"}
	r.OnApply(params.WithOperator(context.Background(), 42), models.DefaultParameters(), next)
	r.OnApply(context.Background(), next, next)

	if len(sink.recs) != 2 {
		t.Fatalf("records = %d", len(sink.recs))
	}
	if sink.recs[0].Operator == nil || *sink.recs[0].Operator != 42 {
		t.Fatalf("operator lost: %+v", sink.recs[0])
	}
	if sink.recs[1].Operator != nil {
		t.Fatalf("operator invented for anonymous apply")
	}
	if !sink.recs[0].AppliedAt.Equal(at) || !sink.recs[0].Params.Equal(next) {
		t.Fatalf("record = %+v", sink.recs[0])
	}
}

func TestRecorderSurvivesCancelledContext(t *testing.T) {
	tx := &fakeTx{}
	r := NewRecorder(NewPgSink(&fakeTxManager{tx: tx}), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r.OnApply(ctx, models.DefaultParameters(), models.DefaultParameters())
	if len(tx.execs) != 1 {
		t.Fatalf("write skipped on cancelled request")
	}
}

func TestPgSinkInsert(t *testing.T) {
	tx := &fakeTx{}
	sink := NewPgSink(&fakeTxManager{tx: tx})
	id := int64(7)
	p := models.DefaultParameters()
	p.Instruments = []string{"XYZUSDT"}

	if err := sink.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	if err := sink.Write(context.Background(), Record{Operator: &id, Params: p, AppliedAt: time.Now()}); err != nil {
		t.Fatalf("write: %v", err)
	}

	if len(tx.execs) != 2 {
		t.Fatalf("execs = %d", len(tx.execs))
	}
	if !strings.Contains(tx.execs[0].sql, "CREATE TABLE IF NOT EXISTS param_applies") {
		t.Fatalf("schema sql = %s", tx.execs[0].sql)
	}
	ins := tx.execs[1]
	if ins.sql != insertApply || len(ins.args) != 3 {
		t.Fatalf("insert = %+v", ins)
	}
	payload, _ := ins.args[1].(string)
	if !strings.Contains(payload, `"instruments":["XYZUSDT"]`) {
		t.Fatalf("payload = %s", payload)
	}
}

func TestPgSinkError(t *testing.T) {
	tx := &fakeTx{err: errors.New("connection refused")}
	core, logs := observer.New(zapcore.WarnLevel)
	r := NewRecorder(NewPgSink(&fakeTxManager{tx: tx}), zap.New(core))

	r.OnApply(context.Background(), models.DefaultParameters(), models.DefaultParameters())
	if logs.FilterMessage("audit write failed").Len() != 1 {
		t.Fatalf("write failure not logged")
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	id := int64(42)
	if err := NewLogSink(zap.New(core)).Write(context.Background(),
		Record{Operator: &id, Params: models.DefaultParameters(), AppliedAt: time.Now()}); err != nil {
		t.Fatalf("write: %v", err)
	}
	entries := logs.FilterMessage("parameters audit").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].ContextMap()["operator"] != int64(42) {
		t.Fatalf("operator field = %v", entries[0].ContextMap()["operator"])
	}
}
