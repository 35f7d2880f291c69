package service

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"hedge_bot/internal/models"
	params "hedge_bot/internal/modules/params/service"
	"hedge_bot/pkg/db"
)

const schema = `CREATE TABLE IF NOT EXISTS param_applies (
	id          BIGSERIAL PRIMARY KEY,
	operator_id BIGINT,
	params      JSONB       NOT NULL,
	applied_at  TIMESTAMPTZ NOT NULL
)`

const insertApply = `INSERT INTO param_applies (operator_id, params, applied_at) VALUES ($1, $2, $3)`

// Record: одна публикация снимка параметров.
type Record struct {
	Operator  *int64
	Params    models.StrategyParameters
	AppliedAt time.Time
}

type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// PgSink пишет в param_applies. Таблица только пополняется, назад не читается.
type PgSink struct {
	tx db.TxManager
}

func NewPgSink(tx db.TxManager) *PgSink {
	return &PgSink{tx: tx}
}

func (s *PgSink) EnsureSchema(ctx context.Context) error {
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, schema)
		return err
	})
}

func (s *PgSink) Write(ctx context.Context, rec Record) error {
	payload, err := sonic.Marshal(rec.Params)
	if err != nil {
		return errors.Wrap(err, "marshal params")
	}
	return s.tx.RunMaster(ctx, func(ctxTx context.Context, tx db.Transaction) error {
		_, err := tx.Exec(ctxTx, insertApply, rec.Operator, string(payload), rec.AppliedAt)
		return err
	})
}

// LogSink: запасной вариант без базы.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Write(_ context.Context, rec Record) error {
	fields := []zap.Field{
		zap.Stringer("params", rec.Params),
		zap.Time("applied_at", rec.AppliedAt),
	}
	if rec.Operator != nil {
		fields = append(fields, zap.Int64("operator", *rec.Operator))
	}
	s.log.Info("parameters audit", fields...)
	return nil
}

// Recorder подписывается на стор параметров и пишет каждую публикацию.
type Recorder struct {
	sink    Sink
	log     *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewRecorder(sink Sink, log *zap.Logger) *Recorder {
	return &Recorder{sink: sink, log: log, now: time.Now, timeout: 5 * time.Second}
}

func (r *Recorder) OnApply(ctx context.Context, _, next models.StrategyParameters) {
	rec := Record{Params: next, AppliedAt: r.now().UTC()}
	if id, ok := params.OperatorFrom(ctx); ok {
		rec.Operator = &id
	}

	// отмена запроса оператора не должна терять запись
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.sink.Write(wctx, rec); err != nil {
		r.log.Warn("audit write failed", zap.Error(err))
	}
}
