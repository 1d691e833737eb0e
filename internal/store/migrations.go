package store

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    keyword      TEXT NOT NULL,
    id           TEXT NOT NULL,
    position     INTEGER NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    content      TEXT NOT NULL DEFAULT '',
    author       TEXT NOT NULL DEFAULT '',
    likes        TEXT NOT NULL DEFAULT '0',
    comments     TEXT NOT NULL DEFAULT '0',
    tags         TEXT NOT NULL DEFAULT '[]',
    url          TEXT NOT NULL DEFAULT '',
    platform     TEXT NOT NULL DEFAULT '',
    collected_at DATETIME NOT NULL,
    cached_at    INTEGER NOT NULL,
    PRIMARY KEY (keyword, id)
);

CREATE INDEX IF NOT EXISTS idx_posts_cached_at ON posts(keyword, cached_at);

CREATE TABLE IF NOT EXISTS ranking_snapshots (
    id               TEXT PRIMARY KEY,
    category         TEXT NOT NULL,
    item_count       INTEGER NOT NULL DEFAULT 0,
    total_engagement INTEGER NOT NULL DEFAULT 0,
    avg_score        REAL NOT NULL DEFAULT 0,
    payload          TEXT NOT NULL DEFAULT '{}',
    generated_at     TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_category ON ranking_snapshots(category, created_at);
`
