package service

import (
	"context"
	"errors"
	"fmt"

	"glimo/internal/model"
	"glimo/internal/realtime"
	"glimo/internal/repository"

	"github.com/google/uuid"
)

type PartnershipService struct {
	repo      PartnershipRepository
	publisher realtime.Publisher
}

func NewPartnershipService(repo PartnershipRepository, publisher realtime.Publisher) *PartnershipService {
	return &PartnershipService{
		repo:      repo,
		publisher: publisher,
	}
}

func partnershipChange(event realtime.Event, req *model.PartnershipRequest) (*realtime.Change, error) {
	return realtime.NewChange(realtime.TablePartnerships, event, req, map[string]string{
		"sender_id":   req.SenderID.String(),
		"receiver_id": req.ReceiverID.String(),
		"status":      string(req.Status),
	})
}

// Request asks receiverID to partner. Repeating a request returns the
// existing one with its status unchanged.
func (s *PartnershipService) Request(ctx context.Context, senderID, receiverID uuid.UUID) (*model.PartnershipRequest, error) {
	if senderID == receiverID {
		return nil, fmt.Errorf("%w: cannot partner with yourself", ErrInvalidInput)
	}

	if _, err := s.repo.GetProfile(ctx, receiverID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get receiver: %w", err)
	}

	req, created, err := s.repo.UpsertPartnershipRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to request partnership: %w", err)
	}

	if created {
		change, err := partnershipChange(realtime.EventInsert, req)
		publish(ctx, s.publisher, change, err)
	}

	return req, nil
}

// Respond lets the receiver accept or reject a pending request.
func (s *PartnershipService) Respond(ctx context.Context, receiverID, senderID uuid.UUID, accept bool) (*model.PartnershipRequest, error) {
	status := model.PartnershipRejected
	if accept {
		status = model.PartnershipAccepted
	}

	req, err := s.repo.RespondPartnershipRequest(ctx, senderID, receiverID, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to respond to partnership: %w", err)
	}

	change, err := partnershipChange(realtime.EventUpdate, req)
	publish(ctx, s.publisher, change, err)

	return req, nil
}

func (s *PartnershipService) Incoming(ctx context.Context, userID uuid.UUID) ([]*model.PartnershipRequest, error) {
	return s.repo.ListPartnershipRequests(ctx, userID, true)
}

func (s *PartnershipService) Outgoing(ctx context.Context, userID uuid.UUID) ([]*model.PartnershipRequest, error) {
	return s.repo.ListPartnershipRequests(ctx, userID, false)
}
