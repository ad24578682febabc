package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateQuestionCache invalidates all question-related caches
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID uint, creatorID string) {
	SafeDelete(ctx, cm.Question,
		fmt.Sprintf("id:%d", questionID),
		fmt.Sprintf("details:%d", questionID))

	SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("creator:%s:*", creatorID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("question:%d:*", questionID))
}

// InvalidateAnswerCache invalidates caches touched by a new submission
func InvalidateAnswerCache(ctx context.Context, cm *CacheManager, studentID string, questionID uint) {
	SafeDelete(ctx, cm.Answer, fmt.Sprintf("pair:%s:%d", studentID, questionID))
	SafeInvalidatePattern(ctx, cm.Answer, fmt.Sprintf("question:%d:*", questionID))
	SafeInvalidatePattern(ctx, cm.Answer, fmt.Sprintf("student:%s:*", studentID))
	SafeInvalidatePattern(ctx, cm.Stats, fmt.Sprintf("question:%d:*", questionID))
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("answer:%s:%d", studentID, questionID))
}

// InvalidateAttemptCache invalidates the cached attempt for a pair
func InvalidateAttemptCache(ctx context.Context, cm *CacheManager, studentID string, questionID uint) {
	SafeDelete(ctx, cm.Attempt, fmt.Sprintf("pair:%s:%d", studentID, questionID))
	SafeInvalidatePattern(ctx, cm.Attempt, fmt.Sprintf("question:%d:*", questionID))
}

// InvalidateClassroomCache drops the cached live-classroom snapshot
func InvalidateClassroomCache(ctx context.Context, cm *CacheManager) {
	SafeDelete(ctx, cm.Fast, "classroom:current")
	SafeInvalidatePattern(ctx, cm.Fast, "meetlinks:*")
}
