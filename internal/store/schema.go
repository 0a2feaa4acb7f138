package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS checkpoints (
    entity_key  TEXT PRIMARY KEY,
    rx_bytes    INTEGER NOT NULL,
    tx_bytes    INTEGER NOT NULL,
    observed_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS monthly_usage (
    entity_key  TEXT NOT NULL,
    year_month  TEXT NOT NULL,
    rx_bytes    INTEGER NOT NULL DEFAULT 0,
    tx_bytes    INTEGER NOT NULL DEFAULT 0,
    last_update TEXT NOT NULL,
    PRIMARY KEY (entity_key, year_month)
);

CREATE TABLE IF NOT EXISTS dhcp_leases (
    mac        TEXT PRIMARY KEY,
    hostname   TEXT NOT NULL DEFAULT '',
    ip_address TEXT NOT NULL,
    client_id  TEXT NOT NULL DEFAULT '',
    expires_at INTEGER NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_monthly_usage_month ON monthly_usage(year_month);
`
