package application

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/internal/domain/apperr"
	"github.com/oksasatya/feedback-hub/internal/domain/entity"
)

func TestRound2(t *testing.T) {
	cases := map[float64]float64{
		3.333333: 3.33,
		3.666666: 3.67,
		2.5:      2.5,
		1.125:    1.13,
		0:        0,
	}
	for in, want := range cases {
		assert.Equal(t, want, round2(in), "round2(%v)", in)
	}
}

func TestApplyGrade_RunningMean(t *testing.T) {
	cases := []struct {
		grades []int
		want   float64
	}{
		{[]int{1, 2, 3, 4, 5}, 3},
		{[]int{2, 4, 3, 3}, 3},
		{[]int{5, 4}, 4.5},
		{[]int{5, 5, 5, 5}, 5},
		{[]int{1, 2}, 1.5},
	}
	for _, tc := range cases {
		r := entity.Rating{}
		for _, g := range tc.grades {
			r = ApplyGrade(r, g)
		}
		assert.Equal(t, tc.want, r.AverageRating, "grades %v", tc.grades)
		assert.Equal(t, len(tc.grades), r.NumberReviewers)
	}
}

func TestApplyReverse_Scenario(t *testing.T) {
	r := entity.Rating{}

	r = ApplyGrade(r, 4)
	assert.Equal(t, entity.Rating{AverageRating: 4, NumberReviewers: 1}, r)
	r = ApplyGrade(r, 2)
	assert.Equal(t, entity.Rating{AverageRating: 3, NumberReviewers: 2}, r)
	r = ReverseGrade(r, 4)
	assert.Equal(t, entity.Rating{AverageRating: 2, NumberReviewers: 1}, r)
	r = ReverseGrade(r, 2)
	assert.Equal(t, entity.Rating{}, r)
}

func TestApplyThenReverse_RestoresRating(t *testing.T) {
	cases := []struct {
		start entity.Rating
		grade int
	}{
		{entity.Rating{}, 3},
		{entity.Rating{AverageRating: 4, NumberReviewers: 1}, 2},
		{entity.Rating{AverageRating: 3, NumberReviewers: 2}, 3},
		{entity.Rating{AverageRating: 4.5, NumberReviewers: 2}, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.start, ReverseGrade(ApplyGrade(tc.start, tc.grade), tc.grade), "start %+v grade %d", tc.start, tc.grade)
	}
}

func TestReverseGrade_NeverBelowZero(t *testing.T) {
	assert.Equal(t, entity.Rating{}, ReverseGrade(entity.Rating{}, 5))
	assert.Equal(t, entity.Rating{}, ReverseGrade(entity.Rating{AverageRating: 3.7, NumberReviewers: 1}, 1))
}

func TestAggregateUpdater_MissingRecipient(t *testing.T) {
	e := newEnv(t)

	_, err := e.agg.Apply(context.Background(), 42, 5)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Recipient ID does not exist: 42", err.Error())
}

func TestAggregateUpdater_ConcurrentAppliesAreNotLost(t *testing.T) {
	e := newEnv(t)
	e.seedUser(t, 1, "a@b.com")

	const writers = 40
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.agg.Apply(context.Background(), 1, 4)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, entity.Rating{AverageRating: 4, NumberReviewers: writers}, e.rating(t, 1))
}
