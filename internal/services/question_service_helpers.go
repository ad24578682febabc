package services

import (
	"context"
	"time"

	"github.com/aptitude-pro/quiz-service/internal/models"
	"github.com/aptitude-pro/quiz-service/internal/repositories"
	"github.com/aptitude-pro/quiz-service/internal/validator"
)

// buildStudentView shapes a question for a student. The correct option and
// explanation stay hidden until the student's pair reaches a terminal state.
func (s *questionService) buildStudentView(ctx context.Context, question *models.Question, studentID string) (*QuestionResponse, error) {
	attempt, err := s.getAttemptOrNil(ctx, studentID, question.ID)
	if err != nil {
		return nil, err
	}
	answer, err := s.getAnswerOrNil(ctx, studentID, question.ID)
	if err != nil {
		return nil, err
	}

	state := models.State(attempt, answer)
	resp := &QuestionResponse{
		Question: question,
		State:    state,
	}

	if answer == nil {
		// Hide grading fields on a shallow copy while the pair is open
		sanitized := *question
		sanitized.CorrectOption = ""
		sanitized.Explanation = nil
		resp.Question = &sanitized
	} else {
		resp.SubmittedAnswer = &AnswerResponse{
			StudentAnswer: answer,
			State:         state,
		}
	}

	if attempt != nil && answer == nil {
		deadline := question.Deadline(attempt.StartedAt)
		remaining := NoLimitSentinel
		if deadline != nil {
			remaining = int64(time.Until(*deadline).Seconds())
			if remaining < 0 {
				remaining = 0
			}
		}
		resp.TimeRemaining = &remaining
	}

	return resp, nil
}

func (s *questionService) getAttemptOrNil(ctx context.Context, studentID string, questionID uint) (*models.QuestionAttempt, error) {
	attempt, err := s.repo.Attempt().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return attempt, nil
}

func (s *questionService) getAnswerOrNil(ctx context.Context, studentID string, questionID uint) (*models.StudentAnswer, error) {
	answer, err := s.repo.Answer().GetByStudentAndQuestion(ctx, nil, studentID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return answer, nil
}

// applyQuestionUpdate copies the set fields of the patch onto the row
func (s *questionService) applyQuestionUpdate(question *models.Question, req *UpdateQuestionRequest) {
	if req.Text != nil {
		question.Text = *req.Text
	}
	if req.Topic != nil {
		question.Topic = *req.Topic
	}
	if req.OptionA != nil {
		question.OptionA = *req.OptionA
	}
	if req.OptionB != nil {
		question.OptionB = *req.OptionB
	}
	if req.OptionC != nil {
		question.OptionC = *req.OptionC
	}
	if req.OptionD != nil {
		question.OptionD = *req.OptionD
	}
	if req.CorrectOption != nil {
		question.CorrectOption = *req.CorrectOption
	}
	if req.Explanation != nil {
		question.Explanation = req.Explanation
	}
	if req.MeetLink != nil {
		question.MeetLink = req.MeetLink
	}
	if req.TimeLimit != nil {
		question.TimeLimitSeconds = validator.ConvertToSeconds(*req.TimeLimit, req.TimeUnit)
	}
	if req.ImageFile != nil {
		question.ImageFile = req.ImageFile
	}
}
