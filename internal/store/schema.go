package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS expenses (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    employee     TEXT NOT NULL,
    source       TEXT NOT NULL,
    destination  TEXT NOT NULL,
    fare         TEXT NOT NULL,
    date         TEXT NOT NULL,
    month        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_expenses_employee ON expenses(employee);
`
