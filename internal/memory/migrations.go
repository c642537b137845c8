package memory

const schema = `
CREATE TABLE IF NOT EXISTS agent_memory (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    execution_id TEXT NOT NULL,
    agent_kind TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    success BOOLEAN DEFAULT TRUE,
    payload TEXT
);

CREATE INDEX IF NOT EXISTS idx_agent_memory_kind ON agent_memory(agent_kind);
CREATE INDEX IF NOT EXISTS idx_agent_memory_execution ON agent_memory(execution_id);

CREATE TABLE IF NOT EXISTS ip_flagged (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    execution_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    matched_term TEXT,
    queries TEXT,
    stage_tag TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ip_flagged_execution ON ip_flagged(execution_id);

CREATE TABLE IF NOT EXISTS rejected (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    execution_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    stage_tag TEXT NOT NULL,
    theme TEXT,
    keywords TEXT,
    flags TEXT,
    cause TEXT NOT NULL DEFAULT 'policy',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_rejected_execution ON rejected(execution_id);

CREATE TABLE IF NOT EXISTS negative_keywords (
    keyword TEXT PRIMARY KEY,
    source_execution TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS ready_for_upload (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    execution_id TEXT NOT NULL,
    candidate_id TEXT NOT NULL,
    niche TEXT NOT NULL,
    payload TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ready_execution ON ready_for_upload(execution_id);

CREATE TABLE IF NOT EXISTS execution_summary (
    execution_id TEXT PRIMARY KEY,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    approved INTEGER NOT NULL,
    ip_flagged INTEGER NOT NULL,
    compliance_flagged INTEGER NOT NULL,
    quality_rejected INTEGER NOT NULL,
    infra_failures INTEGER NOT NULL,
    policy_rejections INTEGER NOT NULL,
    approved_per_hour REAL NOT NULL,
    payload TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS generation_counter (
    day TEXT PRIMARY KEY,
    count INTEGER NOT NULL DEFAULT 0
);
`
