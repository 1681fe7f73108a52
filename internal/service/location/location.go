// Package location holds the mutation entry points for location sharing:
// requests, responses and one-shot alerts.
package location

import (
	"context"
	"errors"

	"github.com/findthemapp/findthem-core/internal/app"
	"github.com/findthemapp/findthem-core/internal/db"
	"github.com/findthemapp/findthem-core/internal/events"
	"github.com/findthemapp/findthem-core/internal/repository"
)

var (
	// ErrSelfRequest rejects a location request aimed at the sender.
	ErrSelfRequest = errors.New("location: cannot request own location")
	// ErrNotReceiver rejects a response from anyone but the request's receiver.
	ErrNotReceiver = errors.New("location: only the receiver can respond")
	// ErrAlreadyResponded rejects a second response to the same request.
	ErrAlreadyResponded = errors.New("location: request already responded to")
	// ErrBadResponse rejects response statuses other than accepted/declined.
	ErrBadResponse = errors.New("location: response must be accepted or declined")
)

// Service implements location-sharing mutations.
type Service struct {
	appCtx       *app.AppContext
	locationRepo *repository.LocationRepository
	userRepo     *repository.UserRepository
}

// NewService creates a location service with dependencies from AppContext.
func NewService(appCtx *app.AppContext) *Service {
	return &Service{
		appCtx:       appCtx,
		locationRepo: repository.NewLocationRepository(appCtx.DB),
		userRepo:     repository.NewUserRepository(appCtx.DB),
	}
}

// SendRequest creates a pending location request and publishes
// LocationRequestSent. A second request for the same (sender, receiver) pair
// surfaces as ErrDuplicate from the repository.
func (s *Service) SendRequest(ctx context.Context, senderID, receiverID uint64) (*db.LocationRequest, error) {
	if senderID == receiverID {
		return nil, ErrSelfRequest
	}
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := s.userRepo.GetByID(ctx, receiverID)
	if err != nil {
		return nil, err
	}

	req, err := s.locationRepo.CreateRequest(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	s.appCtx.Logger.Info("location request sent",
		"request_id", req.ID, "sender_id", senderID, "receiver_id", receiverID)

	s.appCtx.Bus.Publish(ctx, events.LocationRequestSent{
		Request: *req, Sender: *sender, Receiver: *receiver,
	})
	return req, nil
}

// Respond records the receiver's answer and publishes
// LocationRequestResponded. Only the receiver may respond, exactly once.
func (s *Service) Respond(ctx context.Context, requestID, responderID uint64, status db.RequestStatus) (*db.LocationRequest, error) {
	if status != db.RequestAccepted && status != db.RequestDeclined {
		return nil, ErrBadResponse
	}
	req, err := s.locationRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.ReceiverID != responderID {
		return nil, ErrNotReceiver
	}
	if req.Status != db.RequestPending {
		return nil, ErrAlreadyResponded
	}

	if err := s.locationRepo.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, err
	}
	req.Status = status
	s.appCtx.Logger.Info("location request responded",
		"request_id", requestID, "status", status)

	sender := db.User{}
	if req.Sender != nil {
		sender = *req.Sender
	}
	receiver := db.User{}
	if req.Receiver != nil {
		receiver = *req.Receiver
	}
	s.appCtx.Bus.Publish(ctx, events.LocationRequestResponded{
		Request: *req, Sender: sender, Receiver: receiver, Status: status,
	})
	return req, nil
}

// SendAlert publishes a one-shot LocationAlertSent. Delivery dedup within
// the trailing window lives in the observer, not here.
func (s *Service) SendAlert(ctx context.Context, senderID, recipientID uint64) error {
	if senderID == recipientID {
		return ErrSelfRequest
	}
	sender, err := s.userRepo.GetByID(ctx, senderID)
	if err != nil {
		return err
	}
	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		return err
	}

	s.appCtx.Bus.Publish(ctx, events.LocationAlertSent{
		Sender: *sender, Recipient: *recipient,
	})
	return nil
}
