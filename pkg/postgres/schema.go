package postgres

// Schema creates the zenith score table. One row per symbol.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS zenith_scores (
		symbol            TEXT PRIMARY KEY,
		asset_type        TEXT NOT NULL,
		base_score        DOUBLE PRECISION NOT NULL,
		current_score     DOUBLE PRECISION NOT NULL,
		trend_score       DOUBLE PRECISION NOT NULL,
		confidence        DOUBLE PRECISION NOT NULL,
		lifetime_return   DOUBLE PRECISION NOT NULL,
		volatility_score  DOUBLE PRECISION NOT NULL,
		consistency_score DOUBLE PRECISION NOT NULL,
		recovery_score    DOUBLE PRECISION NOT NULL,
		volume_score      DOUBLE PRECISION NOT NULL,
		weights           JSONB NOT NULL,
		breakdown         JSONB NOT NULL,
		launch_date       TIMESTAMPTZ,
		last_calculated   TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS zenith_scores_current_score_idx ON zenith_scores (current_score DESC)`,
}
