// Package store serves the word_pairs vocabulary table. When no database
// is configured the built-in fallback lists keep the game playable.
package store

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/wordpan/wordpan/internal/domain"
)

// Fallback serves the fixed word lists. It backs the game both when no
// DATABASE_URL is configured and when a query against the real store fails.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Available() bool { return false }

func (f *Fallback) WordPairs(ctx context.Context, lang domain.Language, limit int) ([]domain.WordPair, error) {
	pairs := fallbackWords(lang)
	if len(pairs) == 0 {
		log.Warn().Str("module", "store").Str("language", lang.String()).Msg("no fallback words for language")
	}
	if limit > 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs, nil
}

func fallbackWords(lang domain.Language) []domain.WordPair {
	switch lang {
	case domain.Portuguese:
		return pairsFor(domain.Portuguese, [][2]string{
			{"dog", "cachorro"},
			{"cat", "gato"},
			{"house", "casa"},
			{"water", "água"},
			{"hello", "olá"},
			{"goodbye", "adeus"},
			{"thank you", "obrigado"},
			{"please", "por favor"},
			{"yes", "sim"},
			{"no", "não"},
		})
	case domain.Spanish:
		return pairsFor(domain.Spanish, [][2]string{
			{"dog", "perro"},
			{"cat", "gato"},
			{"house", "casa"},
			{"water", "agua"},
			{"hello", "hola"},
		})
	case domain.Belarusian:
		return pairsFor(domain.Belarusian, [][2]string{
			{"dog", "сабака"},
			{"cat", "кот"},
			{"house", "дом"},
			{"water", "вода"},
			{"hello", "прывітанне"},
			{"goodbye", "да пабачэння"},
			{"thank you", "дзякуй"},
			{"please", "калі ласка"},
			{"yes", "так"},
			{"no", "не"},
			{"friend", "сябар"},
			{"love", "любов"},
			{"book", "кніга"},
			{"sun", "сонца"},
			{"moon", "месяц"},
		})
	}
	return nil
}

func pairsFor(lang domain.Language, rows [][2]string) []domain.WordPair {
	out := make([]domain.WordPair, 0, len(rows))
	for i, r := range rows {
		out = append(out, domain.WordPair{
			ID:             fallbackID(lang, i),
			EnglishWord:    r[0],
			TranslatedWord: r[1],
			TargetLanguage: lang,
		})
	}
	return out
}

func fallbackID(lang domain.Language, i int) string {
	return "fallback-" + string(lang) + "-" + strconv.Itoa(i+1)
}
