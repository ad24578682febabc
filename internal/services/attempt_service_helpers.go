package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
)

// getAttemptOrNil loads the pair's attempt, mapping not-found to nil
func (s *attemptService) getAttemptOrNil(ctx context.Context, studentID string, questionID uint) (*models.QuestionAttempt, error) {
	attempt, err := s.repo.Attempt().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

// getAnswerOrNil loads the pair's answer, mapping not-found to nil
func (s *attemptService) getAnswerOrNil(ctx context.Context, studentID string, questionID uint) (*models.StudentAnswer, error) {
	answer, err := s.repo.Answer().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return answer, nil
}

func (s *attemptService) buildAttemptResponse(attempt *models.QuestionAttempt, question *models.Question, answer *models.StudentAnswer) *AttemptResponse {
	deadline := question.Deadline(attempt.StartedAt)

	remaining := NoLimitSentinel
	if deadline != nil {
		remaining = int64(time.Until(*deadline).Seconds())
		if remaining < 0 {
			remaining = 0
		}
	}

	return &AttemptResponse{
		QuestionAttempt: attempt,
		Deadline:        deadline,
		TimeRemaining:   remaining,
		State:           models.State(attempt, answer),
	}
}

// buildAnswerResponse shapes an answer for the API. The explanation and
// correct option are revealed only once the pair is terminal, which is
// always true when an answer row exists.
func (s *attemptService) buildAnswerResponse(answer *models.StudentAnswer, question *models.Question, reveal bool) *AnswerResponse {
	resp := &AnswerResponse{
		StudentAnswer: answer,
		State:         models.State(nil, answer),
	}

	if reveal {
		resp.Explanation = question.Explanation
		correct := question.CorrectOption
		resp.CorrectOption = &correct
	}

	return resp
}

func pageFromOffset(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return (offset / limit) + 1
}
