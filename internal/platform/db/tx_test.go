package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
}

func (b *fakeBeginner) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	tx := &fakeTx{}
	conn := &fakeBeginner{tx: tx}

	calls := 0
	err := WithTx(context.Background(), conn, func(pgx.Tx) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
	require.True(t, tx.committed)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	tx := &fakeTx{}
	conn := &fakeBeginner{tx: tx}

	boom := errors.New("insert failed")
	err := WithTx(context.Background(), conn, func(pgx.Tx) error {
		return boom
	})

	require.ErrorIs(t, err, boom)
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
}

func TestWithTxWrapsBeginError(t *testing.T) {
	conn := &fakeBeginner{beginErr: errors.New("pool exhausted")}

	err := WithTx(context.Background(), conn, func(pgx.Tx) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "begin tx")
}

func TestWithTxWrapsCommitError(t *testing.T) {
	tx := &fakeTx{commitErr: errors.New("serialization failure")}
	conn := &fakeBeginner{tx: tx}

	err := WithTx(context.Background(), conn, func(pgx.Tx) error {
		return nil
	})

	require.Error(t, err)
	require.Contains(t, err.Error(), "commit tx")
}
