package store

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Postgres reads the word_pairs table. Query failures degrade to the
// fallback lists instead of breaking the game mid-session.
type Postgres struct {
	pool     *pgxpool.Pool
	fallback *Fallback
}

// Open connects, migrates and returns the store.
func Open(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open word store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping word store: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	log.Info().Str("module", "store").Msg("word store ready")
	return &Postgres{pool: pool, fallback: NewFallback()}, nil
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Postgres) Available() bool { return true }

func (s *Postgres) WordPairs(ctx context.Context, lang domain.Language, limit int) ([]domain.WordPair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, english_word, translated_word, target_language
		   FROM word_pairs
		  WHERE target_language = $1
		  LIMIT $2`,
		lang.String(), limit,
	)
	if err != nil {
		log.Error().Err(err).Str("module", "store").Str("language", lang.String()).Msg("query failed, serving fallback words")
		return s.fallback.WordPairs(ctx, lang, limit)
	}
	defer rows.Close()

	var out []domain.WordPair
	for rows.Next() {
		var wp domain.WordPair
		var language string
		if err := rows.Scan(&wp.ID, &wp.EnglishWord, &wp.TranslatedWord, &language); err != nil {
			return nil, fmt.Errorf("scan word pair: %w", err)
		}
		wp.TargetLanguage = domain.Language(language)
		out = append(out, wp)
	}
	if err := rows.Err(); err != nil {
		log.Error().Err(err).Str("module", "store").Msg("row iteration failed, serving fallback words")
		return s.fallback.WordPairs(ctx, lang, limit)
	}
	if len(out) == 0 {
		// An empty table is indistinguishable from "not seeded yet".
		return s.fallback.WordPairs(ctx, lang, limit)
	}
	return out, nil
}

// Seed inserts word pairs, skipping rows that already exist. Returns the
// number of newly inserted rows.
func (s *Postgres) Seed(ctx context.Context, pairs []domain.WordPair) (int, error) {
	inserted := 0
	for _, wp := range pairs {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO word_pairs (english_word, translated_word, target_language)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (english_word, translated_word, target_language) DO NOTHING`,
			wp.EnglishWord, wp.TranslatedWord, wp.TargetLanguage.String(),
		)
		if err != nil {
			return inserted, fmt.Errorf("seed %q: %w", wp.EnglishWord, err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *Postgres) Close() { s.pool.Close() }
