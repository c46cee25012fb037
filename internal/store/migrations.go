package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS projects (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	final_deadline DATETIME NOT NULL,
	completed      INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	template_id    TEXT,
	template_name  TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS triggers (
	id                  TEXT PRIMARY KEY,
	project_id          TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name                TEXT NOT NULL,
	is_active           INTEGER NOT NULL DEFAULT 0 CHECK(is_active IN (0, 1)),
	activated_at        DATETIME,
	due_date            DATETIME,
	template_trigger_id TEXT,
	created_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sub_deadlines (
	id                       TEXT PRIMARY KEY,
	project_id               TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title                    TEXT NOT NULL,
	date                     DATETIME NOT NULL,
	completed                INTEGER NOT NULL DEFAULT 0 CHECK(completed IN (0, 1)),
	completed_at             DATETIME,
	template_sub_deadline_id TEXT,
	trigger_id               TEXT REFERENCES triggers(id) ON DELETE SET NULL,
	created_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at               DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_triggers_project_id ON triggers(project_id);
CREATE INDEX IF NOT EXISTS idx_sub_deadlines_project_id ON sub_deadlines(project_id);
CREATE INDEX IF NOT EXISTS idx_sub_deadlines_date ON sub_deadlines(date);
CREATE INDEX IF NOT EXISTS idx_sub_deadlines_trigger_id ON sub_deadlines(trigger_id);
CREATE INDEX IF NOT EXISTS idx_projects_template_id ON projects(template_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE TABLE IF NOT EXISTS templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS template_triggers (
	id            TEXT PRIMARY KEY,
	template_id   TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
	name          TEXT NOT NULL,
	offset_amount INTEGER NOT NULL,
	offset_unit   TEXT NOT NULL,
	offset_before INTEGER NOT NULL DEFAULT 1 CHECK(offset_before IN (0, 1)),
	position      INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS template_sub_deadlines (
	id                  TEXT PRIMARY KEY,
	template_id         TEXT NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
	title               TEXT NOT NULL,
	offset_amount       INTEGER NOT NULL,
	offset_unit         TEXT NOT NULL,
	offset_before       INTEGER NOT NULL DEFAULT 1 CHECK(offset_before IN (0, 1)),
	template_trigger_id TEXT,
	position            INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_template_triggers_template_id
	ON template_triggers(template_id);
CREATE INDEX IF NOT EXISTS idx_template_sub_deadlines_template_id
	ON template_sub_deadlines(template_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	entity_id  TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
CREATE INDEX IF NOT EXISTS idx_notifications_entity ON notifications(entity_id, created_at);

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
