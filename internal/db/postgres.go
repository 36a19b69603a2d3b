package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/gorm"
  "github.com/yungbote/deepresearch-backend/internal/types"
  "github.com/yungbote/deepresearch-backend/internal/utils"
  "github.com/yungbote/deepresearch-backend/internal/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "deep_research", log)
  log.Debug("Environment variables loaded")

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }
  log.Info("uuid-ossp extension enabled")

  return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating postgres tables...")
  err := s.db.AutoMigrate(
    &types.ResearchTask{},
    &types.ResearchFinding{},
    &types.Inference{},
    &types.EvalResult{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for postgres tables", "error", err)
    return err
  }

  s.log.Info("Configuring foreign key relationships for postgres tables...")
  cascades := map[string]string{
    "fk_research_findings_task_id": "research_findings",
    "fk_inferences_task_id":        "inferences",
    "fk_eval_results_task_id":      "eval_results",
  }
  for name, table := range cascades {
    stmt := fmt.Sprintf(`
      DO $$ BEGIN
        ALTER TABLE %q
        ADD CONSTRAINT %q
        FOREIGN KEY ("task_id")
        REFERENCES "research_tasks"("id")
        ON DELETE CASCADE;
      EXCEPTION WHEN duplicate_object THEN NULL;
      END $$;
    `, table, name)
    if err := s.db.Exec(stmt).Error; err != nil {
      return fmt.Errorf("Failed to add %s: %w", name, err)
    }
  }

  s.log.Info("Configuring check constraints for postgres tables...")
  checks := []struct {
    table string
    name  string
    expr  string
  }{
    {"research_tasks", "chk_task_status", `status IN ('pending', 'running', 'completed', 'failed')`},
    {"research_findings", "chk_confidence_range", `confidence IS NULL OR (confidence >= 0.0 AND confidence <= 1.0)`},
    {"inferences", "chk_degrees_min_one", `degrees_of_separation >= 1`},
    {"eval_results", "chk_score_range", `score IS NULL OR (score >= 0.0 AND score <= 1.0)`},
  }
  for _, chk := range checks {
    stmt := fmt.Sprintf(`
      DO $$ BEGIN
        ALTER TABLE %q ADD CONSTRAINT %q CHECK (%s);
      EXCEPTION WHEN duplicate_object THEN NULL;
      END $$;
    `, chk.table, chk.name, chk.expr)
    if err := s.db.Exec(stmt).Error; err != nil {
      return fmt.Errorf("Failed to add %s: %w", chk.name, err)
    }
  }

  s.log.Info("Configuring indexes for postgres tables...")
  indexes := []string{
    `CREATE INDEX IF NOT EXISTS idx_tasks_status ON research_tasks (status)`,
    `CREATE INDEX IF NOT EXISTS idx_tasks_created ON research_tasks (created_at DESC)`,
    `CREATE INDEX IF NOT EXISTS idx_tasks_status_created ON research_tasks (status, created_at DESC)`,
    `CREATE INDEX IF NOT EXISTS idx_tasks_config_gin ON research_tasks USING GIN (config)`,
    `CREATE INDEX IF NOT EXISTS idx_tasks_metadata_gin ON research_tasks USING GIN (metadata)`,
    `CREATE INDEX IF NOT EXISTS idx_findings_task ON research_findings (task_id)`,
    `CREATE INDEX IF NOT EXISTS idx_findings_task_created ON research_findings (task_id, created_at)`,
    `CREATE INDEX IF NOT EXISTS idx_findings_citations_gin ON research_findings USING GIN (citations)`,
    `CREATE INDEX IF NOT EXISTS idx_inferences_task ON inferences (task_id)`,
    `CREATE INDEX IF NOT EXISTS idx_inferences_degrees ON inferences (degrees_of_separation)`,
    `CREATE INDEX IF NOT EXISTS idx_eval_results_task ON eval_results (task_id)`,
    `CREATE INDEX IF NOT EXISTS idx_eval_results_type ON eval_results (eval_type)`,
    `CREATE INDEX IF NOT EXISTS idx_eval_results_task_type ON eval_results (task_id, eval_type)`,
  }
  for _, stmt := range indexes {
    if err := s.db.Exec(stmt).Error; err != nil {
      return fmt.Errorf("Failed to create index: %w", err)
    }
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
