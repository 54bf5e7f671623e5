package treasury

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

const (
	custodyID = "0000000001"
	partyID   = "1234567890"
)

func accountRow(id string, balance int64, version int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "balance", "version", "updated_at"}).
		AddRow(id, balance, version, time.Now())
}

func TestCollect(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := New(db)
	ctx := context.Background()

	t.Run("moves funds from party into custody", func(t *testing.T) {
		amount := int64(2500)

		mock.ExpectBegin()

		// Custody sorts first, so it is locked first
		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts WHERE account_id = \\$1 OR id = \\$1 LIMIT 1 FOR UPDATE").
			WithArgs(custodyID).
			WillReturnRows(accountRow(custodyID, 0, 1))

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts WHERE account_id = \\$1 OR id = \\$1 LIMIT 1 FOR UPDATE").
			WithArgs(partyID).
			WillReturnRows(accountRow(partyID, 5000, 3))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("GIG-1", partyID, -amount, "DEBIT", int64(2500), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("GIG-1", custodyID, amount, "CREDIT", int64(2500), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(2500), sqlmock.AnyArg(), partyID, 3).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(2500), sqlmock.AnyArg(), custodyID, 1).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		err := service.Collect(ctx, partyID, amount, "GIG-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient party balance", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(custodyID).
			WillReturnRows(accountRow(custodyID, 0, 1))

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(partyID).
			WillReturnRows(accountRow(partyID, 1000, 1))

		mock.ExpectRollback()

		err := service.Collect(ctx, partyID, 6000, "GIG-2")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		assert.Error(t, service.Collect(ctx, partyID, 0, "GIG-3"))
		assert.Error(t, service.Collect(ctx, partyID, -100, "GIG-3"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDisburse(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := New(db)
	ctx := context.Background()

	t.Run("moves funds from custody to a party", func(t *testing.T) {
		amount := int64(9500)

		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(custodyID).
			WillReturnRows(accountRow(custodyID, 10000, 7))

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(partyID).
			WillReturnRows(accountRow(partyID, 0, 2))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("PAYOUT-1", custodyID, -amount, "DEBIT", int64(500), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("PAYOUT-1", partyID, amount, "CREDIT", int64(9500), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(500), sqlmock.AnyArg(), custodyID, 7).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(9500), sqlmock.AnyArg(), partyID, 2).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		err := service.Disburse(ctx, partyID, amount, "PAYOUT-1")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("optimistic lock failure rolls back", func(t *testing.T) {
		amount := int64(1000)

		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(custodyID).
			WillReturnRows(accountRow(custodyID, 5000, 4))

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(partyID).
			WillReturnRows(accountRow(partyID, 0, 1))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("WD-abc", custodyID, -amount, "DEBIT", int64(4000), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectExec("INSERT INTO ledger_entries").
			WithArgs("WD-abc", partyID, amount, "CREDIT", int64(1000), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		// Concurrent update bumped the version, no rows match
		mock.ExpectExec("UPDATE accounts").
			WithArgs(int64(4000), sqlmock.AnyArg(), custodyID, 4).
			WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectRollback()

		err := service.Disburse(ctx, partyID, amount, "WD-abc")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "optimistic lock failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT id, balance, version, updated_at FROM accounts").
			WithArgs(custodyID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "balance", "version", "updated_at"}))

		mock.ExpectRollback()

		err := service.Disburse(ctx, partyID, 100, "PAYOUT-9")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
