package services

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// mysqlDuplicateEntry is ER_DUP_ENTRY, raised on unique key violations.
const mysqlDuplicateEntry = 1062

// isDuplicateEntry reports whether err is a unique key violation. Matching on
// the error number keeps classification independent of the server's message
// wording.
func isDuplicateEntry(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
