package chat

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/suPer8Hu/tcg-chat/internal/common"
)

// SubmitAsync records an agent chat turn as a queued job. When key matches a
// job the user already submitted, that job is returned with created=false and
// nothing new is stored. Callers should publish the job when it was created or
// is still queued.
func (s *Service) SubmitAsync(ctx context.Context, userID uint64, in ChatInput, key *string) (job *Job, created bool, err error) {
	if err := ValidateMessage(in.Message); err != nil {
		return nil, false, err
	}

	if key != nil && *key != "" {
		existing, err := s.repo.GetJobByUserAndIdempotencyKey(ctx, userID, *key)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
	}

	conversationID := in.ConversationID
	if conversationID == "" {
		conv, err := s.CreateConversation(ctx, userID, "", in.Message)
		if err != nil {
			return nil, false, err
		}
		conversationID = conv.ID
	} else if _, err := s.repo.GetConversation(ctx, userID, conversationID); err != nil {
		return nil, false, err
	}

	jobID, err := common.NewULID()
	if err != nil {
		return nil, false, err
	}
	return s.repo.CreateJobOrGetExisting(ctx, &Job{
		ID:             jobID,
		UserID:         userID,
		ConversationID: conversationID,
		Prompt:         in.Message,
		UseFileSearch:  in.UseFileSearch,
		IdempotencyKey: key,
		Status:         JobQueued,
	})
}

// GetJob returns the job only when userID owns it.
func (s *Service) GetJob(ctx context.Context, userID uint64, jobID string) (*Job, error) {
	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		// hide existence
		return nil, ErrJobNotFound
	}
	return j, nil
}

// RunJob executes a queued job on the agent path and records the outcome.
// A job that is no longer queued is skipped with a nil reply, so a job that
// was published twice runs once.
func (s *Service) RunJob(ctx context.Context, jobID string) (*AgentReply, error) {
	claimed, err := s.repo.ClaimJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}

	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.log.Info().Str("job_id", jobID).Str("status", string(j.Status)).Msg("job not queued, skipping")
		return nil, nil
	}

	reply, err := s.Converse(ctx, j.UserID, j.ConversationID, j.Prompt, j.UseFileSearch)
	if err != nil {
		if markErr := s.repo.MarkJobFailed(ctx, jobID, err.Error()); markErr != nil {
			s.log.Error().Err(markErr).Str("job_id", jobID).Msg("mark job failed")
		}
		return nil, err
	}

	if err := s.repo.MarkJobSucceeded(ctx, jobID, reply.Message.ID); err != nil {
		return nil, err
	}
	return reply, nil
}
