// Package repository implements the ledger on MySQL.  Each table has a
// small repo whose ...Tx methods run inside a caller-supplied *sql.Tx, and
// Ledger composes them into the ledger.Store port used by the engine.
// Driver errors are translated into the ledger sentinels so the engine
// never has to know which database sits underneath.
package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/auction-marketplace/internal/ledger"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// translate maps driver errors to ledger sentinels and leaves the rest
// untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ledger.ErrNotFound
	case isDuplicate(err):
		return ledger.ErrDuplicate
	}
	return err
}
