package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ErrorDump is the log-only view of an error chain. It never reaches clients.
type ErrorDump struct {
	TopMessage string   `json:"top_message"`
	Code       Code     `json:"code,omitempty"`
	Chain      []string `json:"chain,omitempty"`

	Driver     string `json:"driver,omitempty"`
	SQLState   string `json:"sql_state,omitempty"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Column     string `json:"column,omitempty"`
	Detail     string `json:"detail,omitempty"`
	DBMessage  string `json:"db_message,omitempty"`
}

// Dump flattens err for structured logging, pulling driver details out of
// postgres (pgx, lib/pq) and sqlite errors when present.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	switch {
	case fillPgx(&d, err):
	case fillPQ(&d, err):
	case fillSQLite(&d, err):
	}
	return d
}

func fillPgx(d *ErrorDump, err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	d.Driver = "pgx"
	d.SQLState = pgErr.Code
	d.Constraint = pgErr.ConstraintName
	d.Table = pgErr.TableName
	d.Column = pgErr.ColumnName
	d.Detail = pgErr.Detail
	d.DBMessage = pgErr.Message
	return true
}

func fillPQ(d *ErrorDump, err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	d.Driver = "pq"
	d.SQLState = string(pqErr.Code)
	d.Constraint = pqErr.Constraint
	d.Table = pqErr.Table
	d.Column = pqErr.Column
	d.Detail = pqErr.Detail
	d.DBMessage = pqErr.Message
	return true
}

func fillSQLite(d *ErrorDump, err error) bool {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	d.Driver = "sqlite3"
	d.SQLState = fmt.Sprintf("%d/%d", int(liteErr.Code), int(liteErr.ExtendedCode))
	d.Detail = liteErr.ExtendedCode.Error()
	d.DBMessage = liteErr.Error()
	return true
}
