package telemetry

import "database/sql"

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS acquisition (
            timestamp INTEGER PRIMARY KEY,
            sample_rate REAL,
            samples INTEGER,
            decode_failures INTEGER,
            status_lines INTEGER,
            window_fill INTEGER
        )
    `)

	return err
}
