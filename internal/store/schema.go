package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS courses (
  id text PRIMARY KEY,
  name text NOT NULL,
  description text NOT NULL,
  reward_amount numeric NOT NULL CHECK (reward_amount > 0),
  active boolean NOT NULL DEFAULT true,
  content_hash text,
  language text NOT NULL DEFAULT 'en',
  duration integer NOT NULL CHECK (duration > 0),
  difficulty text NOT NULL DEFAULT 'beginner',
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_courses_language_difficulty ON courses (language, difficulty);

CREATE TABLE IF NOT EXISTS validators (
  wallet text PRIMARY KEY,
  name text,
  role text NOT NULL,
  specializations text[] NOT NULL DEFAULT '{}',
  total_reviewed integer NOT NULL DEFAULT 0,
  approved_count integer NOT NULL DEFAULT 0,
  approval_rate double precision NOT NULL DEFAULT 0,
  reputation integer NOT NULL DEFAULT 100,
  is_active boolean NOT NULL DEFAULT true,
  joined_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS submissions (
  id text PRIMARY KEY,
  submitter_id text NOT NULL,
  submission_type text NOT NULL,
  course_id text,
  course_name text,
  course_reward numeric,
  title text NOT NULL,
  description text NOT NULL,
  evidence_url text,
  evidence_type text,
  requested_flb numeric NOT NULL CHECK (requested_flb > 0),
  granted_flb numeric,
  status text NOT NULL DEFAULT 'PENDING',
  priority text NOT NULL,
  submitted_at timestamptz NOT NULL DEFAULT now(),
  reviewed_at timestamptz,
  reviewed_by text,
  reviewer_notes text,
  idempotency_key text UNIQUE,
  version integer NOT NULL DEFAULT 1,
  CHECK ((status IN ('APPROVED','REJECTED')) = (reviewed_at IS NOT NULL AND reviewed_by IS NOT NULL))
);
CREATE INDEX IF NOT EXISTS idx_submissions_status_submitted ON submissions (status, submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_reviewed_by ON submissions (reviewed_by, reviewed_at DESC);

CREATE TABLE IF NOT EXISTS review_events (
  id text PRIMARY KEY,
  event_type text NOT NULL,
  submission_id text NOT NULL REFERENCES submissions(id),
  payload jsonb NOT NULL,
  attempts integer NOT NULL DEFAULT 0,
  last_error text,
  delivered_at timestamptz,
  archive_key text,
  created_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_review_events_pending ON review_events (created_at) WHERE delivered_at IS NULL;
`

// EnsureSchema creates the tables used by PGStore when they do not exist.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
