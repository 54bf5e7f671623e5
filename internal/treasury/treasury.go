// Package treasury is the value-transfer collaborator of the gig
// ledger: a double-entry Postgres ledger moving funds between party
// accounts and the marketplace custody account.
package treasury

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"

	"github.com/gigboard/backend/internal/models"
)

type Service struct {
	db             *sql.DB
	custodyAccount string
}

func New(db *sql.DB) *Service {
	viper.SetDefault("treasury.custody_account", "0000000001")
	return &Service{
		db:             db,
		custodyAccount: viper.GetString("treasury.custody_account"),
	}
}

// CustodyAccount returns the account holding marketplace funds.
func (s *Service) CustodyAccount() string {
	return s.custodyAccount
}

// Collect moves funds from a party account into custody.
func (s *Service) Collect(ctx context.Context, from string, amount int64, reference string) error {
	return s.transfer(ctx, from, s.custodyAccount, amount, reference)
}

// Disburse moves funds from custody to a party account.
func (s *Service) Disburse(ctx context.Context, to string, amount int64, reference string) error {
	return s.transfer(ctx, s.custodyAccount, to, amount, reference)
}

func (s *Service) transfer(ctx context.Context, fromAccountID, toAccountID string, amount int64, reference string) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.transferTx(tx, fromAccountID, toAccountID, amount, reference); err != nil {
		log.Printf("[TREASURY] Transfer %s failed: %v", reference, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[TREASURY] Transfer %s: %d from %s to %s", reference, amount, fromAccountID, toAccountID)
	return nil
}

func (s *Service) transferTx(tx *sql.Tx, fromAccountID, toAccountID string, amount int64, reference string) error {
	// Lock accounts in consistent order to prevent deadlocks
	firstLock, secondLock := fromAccountID, toAccountID
	if fromAccountID > toAccountID {
		firstLock, secondLock = toAccountID, fromAccountID
	}

	fromAccount, err := s.lockAccount(tx, firstLock)
	if err != nil {
		return err
	}

	toAccount, err := s.lockAccount(tx, secondLock)
	if err != nil {
		return err
	}

	// Determine which locked account is sender/receiver
	if firstLock != fromAccountID {
		fromAccount, toAccount = toAccount, fromAccount
	}

	if fromAccount.Balance < amount {
		return fmt.Errorf("insufficient balance")
	}

	if err := s.createLedgerEntry(tx, reference, fromAccount.ID, -amount, "DEBIT", fromAccount.Balance-amount); err != nil {
		return err
	}

	if err := s.createLedgerEntry(tx, reference, toAccount.ID, amount, "CREDIT", toAccount.Balance+amount); err != nil {
		return err
	}

	if err := s.updateAccountBalance(tx, fromAccount.ID, fromAccount.Balance-amount, fromAccount.Version); err != nil {
		return err
	}

	if err := s.updateAccountBalance(tx, toAccount.ID, toAccount.Balance+amount, toAccount.Version); err != nil {
		return err
	}

	return nil
}

func (s *Service) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, balance, version, updated_at
		FROM accounts
		WHERE account_id = $1 OR id = $1
		LIMIT 1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.Balance, &account.Version, &account.UpdatedAt)

	return &account, err
}

func (s *Service) createLedgerEntry(tx *sql.Tx, reference, accountID string, amount int64, entryType string, balance int64) error {
	_, err := tx.Exec(`
		INSERT INTO ledger_entries (transfer_ref, account_id, amount, entry_type, balance, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		reference, accountID, amount, entryType, balance, time.Now())
	return err
}

func (s *Service) updateAccountBalance(tx *sql.Tx, accountID string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), accountID, version)

	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", accountID)
	}

	return nil
}
