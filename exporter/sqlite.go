package main

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/schema"
	"github.com/ncruces/go-sqlite3"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const ddl = `
CREATE TABLE metadata (
	key TEXT,
	value TEXT
);

CREATE TABLE branches (
	id INTEGER PRIMARY KEY,
	branch_key TEXT NOT NULL UNIQUE,
	branch_name TEXT NOT NULL,
	branch_source_id INTEGER, -- if the source has one
	branch_address TEXT, -- if geocoded
	branch_longitude REAL, -- if geocoded
	branch_latitude REAL -- if geocoded
);

CREATE TABLE days (
	id INTEGER PRIMARY KEY,
	day TEXT NOT NULL UNIQUE,
	date TEXT, -- if resolvable; YYYY-MM-DD
	weekday TEXT -- if resolvable; lowercase first two chars of weekday name
);

CREATE TABLE sessions (
	branch_id INTEGER REFERENCES branches(id),
	day_id INTEGER REFERENCES days(id),
	start_time TEXT NOT NULL,
	end_time TEXT NOT NULL,
	label TEXT NOT NULL,
	start INTEGER, -- if parseable; minutes since midnight
	duration INTEGER -- if parseable; minutes
);

CREATE VIEW everything AS SELECT sessions.rowid AS id, * FROM sessions
	LEFT JOIN days ON day_id = days.id
	LEFT JOIN branches ON branch_id = branches.id;
`

var weekdays = [7]string{
	time.Sunday:    "su",
	time.Monday:    "mo",
	time.Tuesday:   "tu",
	time.Wednesday: "we",
	time.Thursday:  "th",
	time.Friday:    "fr",
	time.Saturday:  "sa",
}

func setupConn(c *sqlite3.Conn) error {
	if err := c.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	return nil
}

// exportDB writes the sqlite and csv exports. Day labels without a year are
// resolved relative to now, which should be in the schedule zone.
func exportDB(doc *schema.Document, coords []schema.BranchCoordinate, now time.Time) error {
	slog.Info("creating sqlite database")

	db, err := driver.Open(":memory:", setupConn)
	if err != nil {
		return fmt.Errorf("initialize db: %w", err)
	}
	defer db.Close()

	if err := populateDB(db, doc, coords, now); err != nil {
		return err
	}

	if *Sqlite != "" {
		slog.Info("writing sqlite db", "name", *Sqlite)
		if err := os.Remove(*Sqlite); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("export sqlite3: %w", err)
		}
		if _, err := db.Exec(`VACUUM INTO ` + sqlite3.Quote(*Sqlite)); err != nil {
			return fmt.Errorf("export sqlite3: %w", err)
		}
	}

	if *CSV != "" {
		slog.Info("writing csv", "dir", *CSV)
		if err := os.Mkdir(*CSV, 0777); err != nil && !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("export csv: %w", err)
		}
		tables, err := getSqliteTables(db)
		if err != nil {
			return fmt.Errorf("export csv: get tables: %w", err)
		}
		for _, table := range tables {
			if err := exportCSV(db, table, filepath.Join(*CSV, table+".csv")); err != nil {
				return fmt.Errorf("export csv: table %s: %w", table, err)
			}
		}
	}
	return nil
}

func populateDB(db *sql.DB, doc *schema.Document, coords []schema.BranchCoordinate, now time.Time) error {
	if _, err := db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize db: %w", err)
	}
	if _, err := db.Exec(`INSERT INTO metadata (key, value) VALUES ('generated_at', ?)`, doc.GeneratedAt); err != nil {
		return fmt.Errorf("insert metadata: %w", err)
	}

	dayID := func(day string) (int64, error) {
		var id int64
		err := db.QueryRow(`SELECT id FROM days WHERE day = ?`, day).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			var date, weekday *string
			if d, ok := schedule.DayDate(day, now); ok {
				date = pointer(d.String())
				weekday = pointer(weekdays[d.Time(time.UTC).Weekday()])
			}
			err = db.QueryRow(`INSERT INTO days (day, date, weekday) VALUES (?, ?, ?) RETURNING id`, day, date, weekday).Scan(&id)
		}
		return id, err
	}
	for _, day := range doc.Days { // in order
		if _, err := dayID(day); err != nil {
			return fmt.Errorf("insert day: %w", err)
		}
	}

	byKey := coordinatesByKey(coords)
	for _, b := range doc.Branches {
		var (
			address  *string
			lng, lat *float64
		)
		if c, ok := byKey[b.Key]; ok {
			address, lng, lat = &c.Address, &c.Lng, &c.Lat
		}
		var branchID int64
		if err := db.QueryRow(
			`INSERT INTO branches (
				branch_key, branch_name, branch_source_id,
				branch_address, branch_longitude, branch_latitude
			) VALUES (
				?, ?, ?,
				?, ?, ?
			) RETURNING id`,
			b.Key, b.Name, b.ID,
			address, lng, lat,
		).Scan(&branchID); err != nil {
			return fmt.Errorf("insert branch: %w", err)
		}
		for _, day := range b.Days {
			id, err := dayID(day)
			if err != nil {
				return fmt.Errorf("insert day: %w", err)
			}
			for _, s := range b.Schedule[day] {
				if _, err := db.Exec(
					`INSERT INTO sessions (
						branch_id, day_id,
						start_time, end_time, label,
						start, duration
					) VALUES (
						?, ?,
						?, ?, ?,
						?, ?
					)`,
					branchID, id,
					s.StartTime, s.EndTime, s.Label,
					startOrNil(s), durationOrNil(s),
				); err != nil {
					return fmt.Errorf("insert session: %w", err)
				}
			}
		}
	}
	return nil
}

func startOrNil(s schema.Session) *int {
	if st, en := s.Start(), s.End(); st.IsValid() && en.IsValid() {
		return pointer(int(st))
	}
	return nil
}

// durationOrNil returns the session length, counting sessions which end
// before they start as ending after midnight.
func durationOrNil(s schema.Session) *int {
	if st, en := s.Start(), s.End(); st.IsValid() && en.IsValid() {
		return pointer((int(en-st) + 24*60) % (24 * 60))
	}
	return nil
}

func getSqliteTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func exportCSV(db *sql.DB, table, outname string) error {
	rows, err := db.Query(`SELECT * FROM ` + table)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(outname, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	cw.Write(cols)

	var (
		values    = make([]sql.NullString, len(cols))
		valueOuts = make([]any, len(cols))
		valueStrs = make([]string, len(cols))
	)
	for i := range values {
		valueOuts[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(valueOuts...); err != nil {
			return err
		}
		for i, v := range values {
			if v.Valid {
				valueStrs[i] = v.String
			} else {
				valueStrs[i] = ""
			}
		}
		cw.Write(valueStrs)
	}
	cw.Flush()

	if err := rows.Err(); err != nil {
		return err
	}
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}
