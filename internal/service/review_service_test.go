package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mentorloop/mentorloop-api/internal/dto"
	"github.com/mentorloop/mentorloop-api/internal/models"
)

func TestWeeklyReviewUpsertCreates(t *testing.T) {
	reviews := newMemReviewRepo()
	enrollments := newMemEnrollments(nil)
	activity := &recordedActivity{}
	events := &recordedEvents{}
	svc := NewWeeklyReviewService(reviews, enrollments, activity, events, testLogger())

	result, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		MentorFeedback: strPtr("good pace this week"),
	}, Actor{ID: 20, Role: "mentor"})
	require.NoError(t, err)
	require.Equal(t, uint(1), result.BatchID)
	require.Equal(t, uint(7), result.StudentID)
	require.Equal(t, 3, result.WeekNumber)
	require.NotNil(t, result.MentorFeedback)
	require.Equal(t, "good pace this week", *result.MentorFeedback)
	require.Nil(t, result.StudentFeedback)
	require.False(t, result.ReviewedAt.IsZero())

	require.Len(t, activity.entries, 1)
	require.Equal(t, "review.saved", activity.entries[0].Action)
	require.Len(t, events.events, 1)
	require.Equal(t, EventReviewSaved, events.events[0].Subject)
}

func TestWeeklyReviewUpsertKeepsOmittedChannel(t *testing.T) {
	reviews := newMemReviewRepo()
	svc := NewWeeklyReviewService(reviews, newMemEnrollments(nil), nil, nil, testLogger())

	_, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		MentorFeedback: strPtr("good pace this week"),
	}, Actor{ID: 20, Role: "mentor"})
	require.NoError(t, err)

	result, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		StudentFeedback: strPtr("struggled with part two"),
	}, Actor{ID: 7, Role: "student"})
	require.NoError(t, err)
	require.NotNil(t, result.MentorFeedback)
	require.Equal(t, "good pace this week", *result.MentorFeedback)
	require.NotNil(t, result.StudentFeedback)
	require.Equal(t, "struggled with part two", *result.StudentFeedback)

	stored, found, err := svc.Get(context.Background(), 1, 7, 3)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, result.MentorFeedback, stored.MentorFeedback)
}

func TestWeeklyReviewUpsertEmptyStringReplaces(t *testing.T) {
	reviews := newMemReviewRepo()
	svc := NewWeeklyReviewService(reviews, newMemEnrollments(nil), nil, nil, testLogger())

	_, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		MentorFeedback: strPtr("first take"),
	}, Actor{ID: 20, Role: "mentor"})
	require.NoError(t, err)

	result, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		MentorFeedback: strPtr(""),
	}, Actor{ID: 20, Role: "mentor"})
	require.NoError(t, err)
	require.NotNil(t, result.MentorFeedback)
	require.Empty(t, *result.MentorFeedback)
}

func TestWeeklyReviewUpsertInvalidWeek(t *testing.T) {
	svc := NewWeeklyReviewService(newMemReviewRepo(), newMemEnrollments(nil), nil, nil, testLogger())

	_, err := svc.Upsert(context.Background(), 1, 7, 0, dto.WeeklyReviewUpsertRequest{}, Actor{ID: 20, Role: "mentor"})
	require.ErrorIs(t, err, ErrWeekNumberInvalid)
}

func TestWeeklyReviewUpsertSanitizes(t *testing.T) {
	svc := NewWeeklyReviewService(newMemReviewRepo(), newMemEnrollments(nil), nil, nil, testLogger())

	result, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		StudentFeedback: strPtr("<b>bold</b> claim"),
	}, Actor{ID: 7, Role: "student"})
	require.NoError(t, err)
	require.Equal(t, "bold claim", *result.StudentFeedback)
}

func TestWeeklyReviewGetAbsent(t *testing.T) {
	svc := NewWeeklyReviewService(newMemReviewRepo(), newMemEnrollments(nil), nil, nil, testLogger())

	_, found, err := svc.Get(context.Background(), 1, 7, 3)
	require.NoError(t, err)
	require.False(t, found)
}

func TestWeeklyReviewListForMentorIncludesEmptyBatches(t *testing.T) {
	reviews := newMemReviewRepo()
	enrollments := newMemEnrollments([]models.Batch{
		{ID: 1, CourseID: 1, Name: "Batch A", MentorID: 20},
		{ID: 2, CourseID: 1, Name: "Batch B", MentorID: 20},
		{ID: 3, CourseID: 1, Name: "Batch C", MentorID: 99},
	})
	svc := NewWeeklyReviewService(reviews, enrollments, nil, nil, testLogger())

	_, err := svc.Upsert(context.Background(), 1, 7, 3, dto.WeeklyReviewUpsertRequest{
		MentorFeedback: strPtr("keep it up"),
	}, Actor{ID: 20, Role: "mentor"})
	require.NoError(t, err)

	batches, err := svc.ListForMentor(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	require.Equal(t, "Batch A", batches[0].BatchName)
	require.Len(t, batches[0].Reviews, 1)
	require.Equal(t, "Batch B", batches[1].BatchName)
	require.Empty(t, batches[1].Reviews)
	require.NotNil(t, batches[1].Reviews)
}
