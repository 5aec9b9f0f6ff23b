package report

import (
	"testing"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

func TestClassifyProbability(t *testing.T) {
	cases := []struct {
		p    float64
		want models.KnowledgeState
	}{
		{0.0, models.StateNotKnown},
		{0.24, models.StateNotKnown},
		{0.25, models.StateEmerging},
		{0.49, models.StateEmerging},
		{0.5, models.StateDeveloping},
		{0.69, models.StateDeveloping},
		{0.7, models.StateComfortable},
		{0.84, models.StateComfortable},
		{0.85, models.StateMastered},
		{1.0, models.StateMastered},
	}
	for _, c := range cases {
		if got := classifyProbability(c.p); got != c.want {
			t.Errorf("classifyProbability(%.2f) = %q, want %q", c.p, got, c.want)
		}
	}
}

func TestGoalBand(t *testing.T) {
	cases := []struct{ current, want models.CEFRBand }{
		{models.CEFRA1, models.CEFRA2},
		{models.CEFRA2, models.CEFRB1},
		{models.CEFRB1, models.CEFRB2},
		{models.CEFRB2, models.CEFRC1},
		{models.CEFRC1, models.CEFRC1},
	}
	for _, c := range cases {
		if got := goalBand(c.current); got != c.want {
			t.Errorf("goalBand(%q) = %q, want %q", c.current, got, c.want)
		}
	}
}

func TestKnowledgeMatrixShape(t *testing.T) {
	g, _ := fixtureGenerator(t)
	rep := &models.Report{Theta: 0.0, SE: 0.28, CEFR: models.CEFRB1}

	m := g.KnowledgeMatrix(rep)
	if m.TotalSampled == 0 || m.TotalSampled > DefaultMatrixSample {
		t.Fatalf("sampled %d words, want 1..%d", m.TotalSampled, DefaultMatrixSample)
	}
	if len(m.Words) != m.TotalSampled {
		t.Errorf("words %d != total_sampled %d", len(m.Words), m.TotalSampled)
	}
	if m.GoalCEFR != models.CEFRB2 {
		t.Errorf("goal band = %q, want B2", m.GoalCEFR)
	}
	if m.GoalTheta != 1.0 {
		t.Errorf("goal theta = %f, want B2 midpoint 1.0", m.GoalTheta)
	}

	sumCurrent, sumGoal := 0, 0
	for _, n := range m.Summary.Counts {
		sumCurrent += n
	}
	for _, n := range m.GoalSummary.Counts {
		sumGoal += n
	}
	if sumCurrent != m.TotalSampled || sumGoal != m.TotalSampled {
		t.Errorf("summary counts %d/%d do not cover the sample %d", sumCurrent, sumGoal, m.TotalSampled)
	}
	if len(m.States) != len(models.KnowledgeStateCatalog) {
		t.Errorf("states catalog has %d entries", len(m.States))
	}

	for i := 1; i < len(m.Words); i++ {
		if m.Words[i].FreqRank < m.Words[i-1].FreqRank {
			t.Fatalf("words not ordered by frequency at index %d", i)
		}
	}
}

func TestKnowledgeMatrixGoalImproves(t *testing.T) {
	g, _ := fixtureGenerator(t)
	rep := &models.Report{Theta: 0.0, SE: 0.28, CEFR: models.CEFRB1}

	m := g.KnowledgeMatrix(rep)
	for _, w := range m.Words {
		if w.GoalProbability < w.CurrentProbability {
			t.Fatalf("word %q goal probability %f below current %f",
				w.Word, w.GoalProbability, w.CurrentProbability)
		}
	}
	if m.GoalSummary.WordsChanged == 0 {
		t.Errorf("goal projection changed no knowledge states")
	}
}

func TestKnowledgeMatrixCeilingFloor(t *testing.T) {
	g, _ := fixtureGenerator(t)
	// A C1 learner has no next band; the goal still moves half a unit up.
	rep := &models.Report{Theta: 2.5, SE: 0.25, CEFR: models.CEFRC1}

	m := g.KnowledgeMatrix(rep)
	if m.GoalCEFR != models.CEFRC1 {
		t.Errorf("goal band = %q, want C1", m.GoalCEFR)
	}
	if m.GoalTheta != 3.0 {
		t.Errorf("goal theta = %f, want theta+0.5 = 3.0", m.GoalTheta)
	}
}

func TestSampleStratifiedCoversAllBands(t *testing.T) {
	g, _ := fixtureGenerator(t)
	sampled := g.sampleStratified(DefaultMatrixSample)

	perBand := make(map[models.CEFRBand]int)
	for _, it := range sampled {
		perBand[it.CEFR]++
	}
	for _, band := range models.CEFROrder {
		if perBand[band] < 5 {
			t.Errorf("band %q sampled %d times, want at least 5", band, perBand[band])
		}
	}
	if len(sampled) > DefaultMatrixSample {
		t.Errorf("sample size %d exceeds cap", len(sampled))
	}
}
