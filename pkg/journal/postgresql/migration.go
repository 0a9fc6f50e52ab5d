package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE notes (
				id VARCHAR(255) PRIMARY KEY,
				date DATE NOT NULL,
				content TEXT NOT NULL,
				tags JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_notes_date ON notes(date);

			CREATE TABLE summaries (
				id VARCHAR(255) NOT NULL,
				date DATE NOT NULL,
				content TEXT NOT NULL,
				risk_score INT NOT NULL DEFAULT 0,
				idempotency_key VARCHAR(512) PRIMARY KEY,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_summaries_date ON summaries(date);

			CREATE TABLE routines (
				id VARCHAR(255) NOT NULL,
				title VARCHAR(512) NOT NULL,
				steps JSONB NOT NULL,
				idempotency_key VARCHAR(512) PRIMARY KEY,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
		`,
	}
}
