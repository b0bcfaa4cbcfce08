package profile

import (
	"hash/fnv"

	"github.com/pathwise/pathwise/internal/catalog"
)

// Feature vector layout. Small and fixed-dimension so profiles stay cheap
// to store and cosine similarity stays explainable.
const (
	featDifficulty = 0 // difficulty / 10
	featDuration   = 1 // estimated minutes / 120, capped at 1
	featTypeBase   = 2 // one-hot content type, contentTypeDims wide
	contentTypeDims = 6
	featSubjectBase = featTypeBase + contentTypeDims // hashed subject buckets
	subjectDims     = 8

	// FeatureDims is the total feature vector length.
	FeatureDims = featSubjectBase + subjectDims
)

var typeSlots = map[catalog.ContentType]int{
	catalog.TypeLesson:     0,
	catalog.TypeExercise:   1,
	catalog.TypeVideo:      2,
	catalog.TypeReading:    3,
	catalog.TypeProject:    4,
	catalog.TypeAssessment: 5,
}

// FeatureVector maps a content item to its fixed-dimension feature vector.
// Deterministic: identical items always produce identical vectors.
func FeatureVector(item catalog.ContentItem) []float64 {
	v := make([]float64, FeatureDims)

	v[featDifficulty] = float64(item.Difficulty) / 10.0

	mins := float64(item.EstimatedMinutes) / 120.0
	if mins > 1 {
		mins = 1
	}
	v[featDuration] = mins

	if slot, ok := typeSlots[item.ContentType]; ok {
		v[featTypeBase+slot] = 1
	}

	v[featSubjectBase+subjectBucket(item.Subject)] = 1

	return v
}

func subjectBucket(subject string) int {
	h := fnv.New32a()
	h.Write([]byte(subject))
	return int(h.Sum32() % subjectDims)
}
