// Package repository implements the reservation, room and customer stores
// on MySQL. Missing rows are reported by wrapping service.ErrNotFound so the
// service layer can tell them apart from database failures; handlers never
// see sql.ErrNoRows directly.
package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/room-reservation/internal/service"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique index violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// notFound converts sql.ErrNoRows into service.ErrNotFound with a readable
// subject and passes every other error through.
func notFound(err error, subject string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", subject, service.ErrNotFound)
	}
	return err
}

// expectOne fails with service.ErrNotFound when an UPDATE or DELETE matched
// no row. It relies on the clientFoundRows DSN flag so that rows matched but
// left unchanged still count.
func expectOne(res sql.Result, subject string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", subject, service.ErrNotFound)
	}
	return nil
}
