package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type contextKey int

const (
	transactionKey contextKey = iota
)

var errTxFinished = errors.New("transaction already finished")

// Tx is a plan write in progress. Every store call made with a context
// carrying a Tx joins it, so a cohort or wave commit lands in one piece.
type Tx struct {
	id      int64
	db      *gorm.DB
	started time.Time
	log     logrus.FieldLogger
}

// Commit finishes the transaction carried by ctx. A context without one is
// returned unchanged.
func Commit(ctx context.Context) (context.Context, error) {
	return finish(ctx, func(t *Tx) error { return t.Commit() })
}

// Rollback discards the transaction carried by ctx.
func Rollback(ctx context.Context) (context.Context, error) {
	return finish(ctx, func(t *Tx) error { return t.Rollback() })
}

func finish(ctx context.Context, fn func(*Tx) error) (context.Context, error) {
	t, ok := ctx.Value(transactionKey).(*Tx)
	if !ok || t == nil {
		return ctx, nil
	}
	return context.WithValue(ctx, transactionKey, (*Tx)(nil)), fn(t)
}

// FromContext returns the open transaction of ctx, or nil.
func FromContext(ctx context.Context) *gorm.DB {
	t, ok := ctx.Value(transactionKey).(*Tx)
	if !ok || t == nil {
		return nil
	}
	return t.db
}

// newTransactionContext begins a transaction unless ctx already carries one,
// in which case the caller joins it.
func newTransactionContext(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) (context.Context, error) {
	if FromContext(ctx) != nil {
		return ctx, nil
	}

	tx := db.Session(&gorm.Session{Context: ctx}).Begin()
	if tx.Error != nil {
		return ctx, tx.Error
	}

	t := &Tx{db: tx, started: time.Now(), log: log}
	// only postgres exposes a transaction id; sqlite transactions log id 0
	if tx.Dialector.Name() == "postgres" {
		var row struct{ ID int64 }
		tx.Raw("select txid_current() as id").Scan(&row)
		t.id = row.ID
	}

	return context.WithValue(ctx, transactionKey, t), nil
}

func (t *Tx) Commit() error {
	return t.end("committed", func(db *gorm.DB) error { return db.Commit().Error })
}

func (t *Tx) Rollback() error {
	return t.end("rolled back", func(db *gorm.DB) error { return db.Rollback().Error })
}

func (t *Tx) end(outcome string, fn func(*gorm.DB) error) error {
	if t.db == nil {
		return errTxFinished
	}
	db := t.db
	t.db = nil

	fields := logrus.Fields{"tx": t.id, "duration": time.Since(t.started)}
	if err := fn(db); err != nil {
		t.log.WithFields(fields).Errorf("transaction not %s: %v", outcome, err)
		return err
	}
	t.log.WithFields(fields).Debugf("transaction %s", outcome)
	return nil
}
