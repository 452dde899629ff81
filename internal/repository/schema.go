package repository

const postgresSchema = `
CREATE TABLE IF NOT EXISTS hikes (
    id             TEXT PRIMARY KEY,
    hiker_id       BIGINT NOT NULL,
    trail_id       TEXT NOT NULL,
    started_at     TIMESTAMPTZ NOT NULL,
    ended_at       TIMESTAMPTZ,
    distance_miles DOUBLE PRECISION NOT NULL DEFAULT 0,
    capture_count  INTEGER NOT NULL DEFAULT 0,
    camera_count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS discoveries (
    id              TEXT PRIMARY KEY,
    trail_id        TEXT NOT NULL,
    type            TEXT NOT NULL DEFAULT '',
    title           TEXT NOT NULL DEFAULT '',
    lat             DOUBLE PRECISION,
    lng             DOUBLE PRECISION,
    reveal_radius_m DOUBLE PRECISION NOT NULL DEFAULT 0,
    rarity          TEXT NOT NULL DEFAULT 'common',
    sort_order      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS discoveries_trail_idx ON discoveries (trail_id, sort_order);

CREATE TABLE IF NOT EXISTS captures (
    id           TEXT PRIMARY KEY,
    hike_id      TEXT NOT NULL REFERENCES hikes (id),
    discovery_id TEXT NOT NULL,
    lat          DOUBLE PRECISION NOT NULL,
    lng          DOUBLE PRECISION NOT NULL,
    photo_ref    TEXT,
    note         TEXT,
    captured_at  TIMESTAMPTZ NOT NULL,
    UNIQUE (hike_id, discovery_id)
);

CREATE TABLE IF NOT EXISTS identifications (
    id            TEXT PRIMARY KEY,
    hike_id       TEXT NOT NULL REFERENCES hikes (id),
    name          TEXT NOT NULL,
    category      TEXT NOT NULL DEFAULT '',
    rarity        TEXT NOT NULL DEFAULT 'common',
    lat           DOUBLE PRECISION NOT NULL,
    lng           DOUBLE PRECISION NOT NULL,
    photo_ref     TEXT,
    identified_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS badges (
    id        TEXT PRIMARY KEY,
    hike_id   TEXT NOT NULL REFERENCES hikes (id),
    type      TEXT NOT NULL,
    name      TEXT NOT NULL,
    icon      TEXT NOT NULL,
    xp        INTEGER NOT NULL,
    earned_at TIMESTAMPTZ NOT NULL,
    UNIQUE (hike_id, type)
);

CREATE TABLE IF NOT EXISTS quest_items (
    id           TEXT PRIMARY KEY,
    hike_id      TEXT NOT NULL REFERENCES hikes (id),
    position     INTEGER NOT NULL,
    name         TEXT NOT NULL,
    category     TEXT NOT NULL DEFAULT '',
    hint         TEXT NOT NULL DEFAULT '',
    xp           INTEGER NOT NULL,
    rarity       TEXT NOT NULL DEFAULT 'common',
    completed    BOOLEAN NOT NULL DEFAULT FALSE,
    completed_at TIMESTAMPTZ
)
`

const queueSchema = `
CREATE TABLE IF NOT EXISTS upload_queue (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT NOT NULL UNIQUE,
    hike_id    TEXT NOT NULL,
    local_ref  TEXT NOT NULL,
    kind       TEXT NOT NULL CHECK (kind IN ('photo', 'video', 'audio')),
    metadata   TEXT NOT NULL DEFAULT '{}',
    synced     INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    synced_at  DATETIME
);

CREATE INDEX IF NOT EXISTS upload_queue_hike_idx ON upload_queue (hike_id, seq)
`
