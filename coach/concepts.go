package coach

import (
	"math"

	"github.com/zeu5/maze-coach/util"
)

const (
	conceptExploreRate   = 0.16
	conceptMasteryWeight = 0.9
	conceptNoveltyBonus  = 0.15
	conceptLearningRate  = 0.28

	conceptMinMastery = 5
	conceptMaxMastery = 100
)

// ConceptQuestions lists the question ids available for one concept.
type ConceptQuestions struct {
	Concept   string
	Questions []string
}

func (s *State) concept(id string) *ConceptRecord {
	rec, ok := s.Concepts[id]
	if !ok {
		rec = &ConceptRecord{MasteryPercent: conceptMinMastery}
		s.Concepts[id] = rec
	}
	return rec
}

// conceptMastery is round(clamp((accuracy + min(0.2, 0.03*streak))*100, 5, 100)).
func conceptMastery(rec *ConceptRecord) int {
	accuracy := util.Ratio(float64(rec.Correct), float64(rec.Attempts))
	streakBonus := math.Min(0.2, float64(rec.Streak)*0.03)
	return int(math.Round(util.Clamp((accuracy+streakBonus)*100, conceptMinMastery, conceptMaxMastery)))
}

// RecordAnswer updates a concept after one answered question.
func (c *Coach) RecordAnswer(conceptID string, correct bool) ConceptRecord {
	rec := c.state.concept(conceptID)
	old := rec.MasteryPercent

	rec.Attempts++
	if correct {
		rec.Correct++
		rec.Streak++
	} else {
		rec.Streak = 0
	}
	rec.MasteryPercent = conceptMastery(rec)

	base := -0.25
	if correct {
		base = 0.9
	}
	reward := util.Clamp(base+float64(rec.MasteryPercent-old)/100, -0.5, 1.2)
	rec.QValue += conceptLearningRate * (reward - rec.QValue)

	c.logger.Debug("concept answer recorded",
		"concept", conceptID, "correct", correct, "mastery", rec.MasteryPercent, "q", rec.QValue)
	return *rec
}

// Concept returns the record for id without creating it.
func (c *Coach) Concept(id string) (ConceptRecord, bool) {
	rec, ok := c.state.Concepts[id]
	if !ok {
		return ConceptRecord{MasteryPercent: conceptMinMastery}, false
	}
	return *rec, true
}

// NextConcept picks the concept to quiz next. With probability 0.16 it picks
// uniformly at random; otherwise it maximizes
// q + 0.9*(100-mastery)/100 + 0.15*[attempts<2]. Ties go to the earlier id.
func (c *Coach) NextConcept(conceptIDs []string) string {
	if len(conceptIDs) == 0 {
		return ""
	}
	c.state.Decisions++
	if c.rng.Float64() < conceptExploreRate {
		return util.Pick(c.rng, conceptIDs)
	}
	best, bestScore := conceptIDs[0], math.Inf(-1)
	for _, id := range conceptIDs {
		rec, _ := c.Concept(id)
		score := rec.QValue + conceptMasteryWeight*float64(100-rec.MasteryPercent)/100
		if rec.Attempts < 2 {
			score += conceptNoveltyBonus
		}
		if score > bestScore {
			best, bestScore = id, score
		}
	}
	return best
}

// PickQuestion returns the least-shown question id and counts it as shown.
func (c *Coach) PickQuestion(questionIDs []string) (string, bool) {
	if len(questionIDs) == 0 {
		return "", false
	}
	best := questionIDs[0]
	for _, q := range questionIDs[1:] {
		if c.state.QuestionSeen[q] < c.state.QuestionSeen[best] {
			best = q
		}
	}
	c.state.QuestionSeen[best]++
	return best, true
}

// NextQuestion chooses a concept among those with questions and then a
// question within it.
func (c *Coach) NextQuestion(bank []ConceptQuestions) (concept, question string, ok bool) {
	ids := make([]string, 0, len(bank))
	byConcept := make(map[string][]string, len(bank))
	for _, cq := range bank {
		if len(cq.Questions) == 0 {
			continue
		}
		if _, dup := byConcept[cq.Concept]; !dup {
			ids = append(ids, cq.Concept)
		}
		byConcept[cq.Concept] = append(byConcept[cq.Concept], cq.Questions...)
	}
	concept = c.NextConcept(ids)
	if concept == "" {
		return "", "", false
	}
	question, ok = c.PickQuestion(byConcept[concept])
	return concept, question, ok
}
