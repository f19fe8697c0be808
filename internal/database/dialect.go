package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"firerisk/internal/types"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
)

// dialect renders the DDL for one backend and bulk-loads rows into it.
type dialect interface {
	quote(ident string) string
	dropTable(name string) string
	createTable(name string, cols []column) string
	load(ctx context.Context, conn *sql.Conn, name string, cols []column, rows [][]any) error
}

// columnDefs renders "name TYPE" pairs, looking the SQL type up by kind.
func columnDefs(d dialect, cols []column, sqlTypes map[types.Kind]string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = d.quote(c.name) + " " + sqlTypes[c.kind]
	}
	return strings.Join(defs, ", ")
}

func columnNames(cols []column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

type postgres struct{}

var postgresTypes = map[types.Kind]string{
	types.Integer: "BIGINT",
	types.Number:  "DOUBLE PRECISION",
	types.String:  "TEXT",
}

func (postgres) quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func (p postgres) dropTable(name string) string {
	return "DROP TABLE IF EXISTS " + p.quote(name)
}

func (p postgres) createTable(name string, cols []column) string {
	return fmt.Sprintf("CREATE TABLE %s (%s)", p.quote(name), columnDefs(p, cols, postgresTypes))
}

// load streams rows over the COPY protocol on the underlying pgx connection.
func (postgres) load(ctx context.Context, conn *sql.Conn, name string, cols []column, rows [][]any) error {
	return conn.Raw(func(driverConn any) error {
		pc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}
		n, err := pc.Conn().CopyFrom(ctx, pgx.Identifier{name}, columnNames(cols), pgx.CopyFromRows(rows))
		if err != nil {
			return err
		}
		if n != int64(len(rows)) {
			return fmt.Errorf("copied %d of %d rows", n, len(rows))
		}
		return nil
	})
}

type oracle struct{}

var oracleTypes = map[types.Kind]string{
	types.Integer: "NUMBER(19)",
	types.Number:  "NUMBER",
	types.String:  "VARCHAR2(4000)",
}

func (oracle) quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// dropTable ignores ORA-00942 so a first run against an empty schema succeeds.
func (o oracle) dropTable(name string) string {
	return fmt.Sprintf(`BEGIN
  EXECUTE IMMEDIATE 'DROP TABLE %s';
EXCEPTION
  WHEN OTHERS THEN
    IF SQLCODE != -942 THEN
      RAISE;
    END IF;
END;`, strings.ReplaceAll(o.quote(name), "'", "''"))
}

func (o oracle) createTable(name string, cols []column) string {
	return fmt.Sprintf("CREATE TABLE %s (%s)", o.quote(name), columnDefs(o, cols, oracleTypes))
}

func (o oracle) insert(name string, cols []column) string {
	names := make([]string, len(cols))
	binds := make([]string, len(cols))
	for i, c := range cols {
		names[i] = o.quote(c.name)
		binds[i] = fmt.Sprintf(":%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		o.quote(name), strings.Join(names, ", "), strings.Join(binds, ", "))
}

func (o oracle) load(ctx context.Context, conn *sql.Conn, name string, cols []column, rows [][]any) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, o.insert(name, cols))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}
