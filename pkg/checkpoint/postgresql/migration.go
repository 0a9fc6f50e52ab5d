package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE checkpoints (
				thread_id VARCHAR(255) PRIMARY KEY,
				state JSONB NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(100) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_checkpoints_agent_type ON checkpoints(agent_type);

			CREATE TABLE checkpoint_history (
				id BIGSERIAL PRIMARY KEY,
				thread_id VARCHAR(255) NOT NULL,
				state JSONB NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				agent_type VARCHAR(100) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_checkpoint_history_thread_id ON checkpoint_history(thread_id);
		`,
	}
}
