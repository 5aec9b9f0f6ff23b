package learning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

func TestDistributionsSumToOne(t *testing.T) {
	for goal, stages := range goalDistributions {
		for stage, dist := range stages {
			sum := 0.0
			for _, p := range dist {
				sum += p
			}
			if math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("%s/%s: probabilities sum to %v", goal, stage, sum)
			}
		}
	}
}

func TestDistributionsCoverAllStages(t *testing.T) {
	stages := []models.LearningStage{
		models.StageFirstExposure,
		models.StageReview,
		models.StageMasteryCheck,
	}
	for goal := range models.ValidGoalIDs {
		for _, stage := range stages {
			if dist := distributionFor(goal, stage); len(dist) == 0 {
				t.Errorf("%s/%s: empty distribution", goal, stage)
			}
		}
	}
}

func TestDescendingOrder(t *testing.T) {
	dist := goalDistributions[models.GoalCSAT][models.StageMasteryCheck]
	ordered := dist.descending()
	if len(ordered) != len(dist) {
		t.Fatalf("ordered has %d types, want %d", len(ordered), len(dist))
	}
	for i := 1; i < len(ordered); i++ {
		prev, cur := dist[ordered[i-1]], dist[ordered[i]]
		if prev < cur {
			t.Fatalf("not descending at %d: %v then %v", i, prev, cur)
		}
		if prev == cur && ordered[i-1] > ordered[i] {
			t.Fatalf("tie not broken by type at %d", i)
		}
	}
}

func TestSampleRespectsSupport(t *testing.T) {
	it := &models.Item{
		Word:      "bare",
		MeaningKo: "뜻",
	}
	dist := goalDistributions[models.GoalCSAT][models.StageMasteryCheck]
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		if qt := dist.sample(rng, it); !it.Supports(qt) {
			t.Fatalf("draw %d picked unsupported type %d", i, qt)
		}
	}
}

func TestSampleFollowsDistribution(t *testing.T) {
	it := &models.Item{
		Word:         "full",
		MeaningKo:    "뜻",
		DefinitionEn: "a definition",
		Synonyms:     []string{"syn"},
		Antonyms:     []string{"ant"},
		Sentences:    []string{"The full word appears here."},
		Collocations: []string{"full house"},
	}
	dist := goalDistributions[models.GoalElementary][models.StageFirstExposure]
	rng := rand.New(rand.NewSource(11))

	counts := make(map[models.QuestionType]int)
	const draws = 5000
	for i := 0; i < draws; i++ {
		counts[dist.sample(rng, it)]++
	}
	for qt, p := range dist {
		got := float64(counts[qt]) / draws
		if math.Abs(got-p) > 0.05 {
			t.Errorf("type %d: observed %v, want near %v", qt, got, p)
		}
	}
}

func TestDistributionForUnknownGoal(t *testing.T) {
	dist := distributionFor(models.GoalID("unknown"), models.StageReview)
	want := goalDistributions[models.GoalElementary][models.StageReview]
	if len(dist) != len(want) {
		t.Fatalf("unknown goal did not default to elementary")
	}
}
