// Package matching сопоставляет лица на фото с каталогом зарегистрированных персон
// полным перебором по евклидову расстоянию.
package matching

import (
	"math"
	"sort"
	"strconv"

	"github.com/DRSN-tech/face-matcher/internal/domain"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultThreshold = 0.4

	DedupByID   = "id"
	DedupByName = "name"
)

// Options задаёт порог совпадения и ключ дедупликации результатов.
type Options struct {
	// Threshold — строгая верхняя граница расстояния: совпадение принимается при d < Threshold.
	// При Threshold <= 0 совпадений нет; значение по умолчанию задаёт DefaultOptions.
	Threshold float64
	// DedupBy — "id" (по умолчанию) или "name".
	DedupBy string
}

func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, DedupBy: DedupByID}
}

// Distance возвращает евклидово расстояние между векторами.
// ok == false, если размерности не совпадают или векторы пустые.
func Distance(a, b domain.Embedding) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}

	d := floats.Distance(a, b, 2)
	if math.IsNaN(d) {
		return 0, false
	}

	return d, true
}

// Match находит для каждого лица ближайшую персону каталога и оставляет
// не более одного результата на персону (с минимальным расстоянием).
// Пустые faces или catalog дают пустой, но не nil результат.
func Match(faces []domain.FaceDescriptor, catalog []domain.CatalogEntry, opts Options) []domain.MatchResult {
	results := make([]domain.MatchResult, 0)
	if len(faces) == 0 || len(catalog) == 0 {
		return results
	}

	best := make(map[string]int, len(catalog))
	for _, face := range faces {
		idx, dist, ok := nearestPerson(face.Vector, catalog)
		if !ok || !(dist < opts.Threshold) {
			continue
		}

		person := catalog[idx]
		candidate := domain.MatchResult{
			PersonID: person.PersonID,
			Name:     person.Name,
			Distance: dist,
			Box:      face.Box,
		}

		key := dedupKey(person, opts.DedupBy)
		if i, seen := best[key]; seen {
			if candidate.Distance < results[i].Distance {
				results[i] = candidate
			}
			continue
		}

		best[key] = len(results)
		results = append(results, candidate)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].PersonID < results[j].PersonID
	})

	return results
}

// nearestPerson возвращает индекс персоны с минимальным расстоянием до лица.
// При равенстве выигрывает персона, стоящая в каталоге раньше.
func nearestPerson(face domain.Embedding, catalog []domain.CatalogEntry) (int, float64, bool) {
	bestIdx, bestDist := -1, math.Inf(1)

	for i, person := range catalog {
		d, ok := minDistance(face, person.Descriptors)
		if ok && d < bestDist {
			bestIdx, bestDist = i, d
		}
	}

	return bestIdx, bestDist, bestIdx >= 0
}

// minDistance пропускает дескрипторы несовпадающей размерности.
func minDistance(face domain.Embedding, descriptors []domain.Embedding) (float64, bool) {
	best, found := math.Inf(1), false

	for _, desc := range descriptors {
		d, ok := Distance(face, desc)
		if ok && d < best {
			best, found = d, true
		}
	}

	return best, found
}

func dedupKey(person domain.CatalogEntry, mode string) string {
	if mode == DedupByName {
		return "name:" + person.Name
	}

	return "id:" + strconv.FormatInt(person.PersonID, 10)
}
