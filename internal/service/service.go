package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"rifa/internal/dto"
	"rifa/internal/model"
	"rifa/internal/repo"
	"rifa/internal/ticket"
	"rifa/internal/upload"
	"rifa/pkg/validator"
)

const paymentProofField = "paymentProof"

var errAlreadyConfirmed = errors.New("participation already confirmed")

type Service interface {
	Submit(ctx *ginext.Context)
	Confirm(ctx *ginext.Context)
}

// Notifier tells a participant which ticket number they got.
type Notifier interface {
	SendTicketEmail(ctx context.Context, recipientEmail string, ticketNumber int) error
}

type Options struct {
	// UniqueTickets makes confirmation avoid numbers already assigned to another participation.
	UniqueTickets bool
	// QueuedNotifications reports that Notifier only enqueues the email.
	QueuedNotifications bool
}

type service struct {
	// mu serializes every load-modify-save cycle against the store.
	mu       sync.Mutex
	store    repo.Store
	tickets  ticket.Generator
	notifier Notifier
	uploads  *upload.Storage
	log      *zerolog.Logger
	opts     Options
	now      func() time.Time
}

func NewService(
	store repo.Store,
	tickets ticket.Generator,
	notifier Notifier,
	uploads *upload.Storage,
	logger *zerolog.Logger,
	opts Options,
) Service {
	return &service{
		store:    store,
		tickets:  tickets,
		notifier: notifier,
		uploads:  uploads,
		log:      logger,
		opts:     opts,
		now:      time.Now,
	}
}

func (s *service) Submit(ctx *ginext.Context) {
	var req dto.SubmitParticipationRequest
	if err := ctx.ShouldBindWith(&req, binding.Form); err != nil {
		s.log.Warn().Err(err).Msg("failed to parse participation form")
		if tooLarge(err) {
			dto.PayloadTooLargeError(ctx, dto.MsgProofTooLarge)
			return
		}
		dto.BadResponseError(ctx, dto.MsgMissingFields)
		return
	}

	if verr := validator.Validate(ctx, req); verr != nil {
		s.log.Warn().Msgf("validation failed: %v", verr)
		var fieldErr *validator.Error
		if errors.As(verr, &fieldErr) && fieldErr.Tag == "positivenumber" {
			dto.BadResponseError(ctx, dto.MsgInvalidTickets)
			return
		}
		dto.BadResponseError(ctx, dto.MsgMissingFields)
		return
	}
	boletos, _ := validator.ParsePositiveNumber(req.Boletos)

	proof, err := ctx.FormFile(paymentProofField)
	if err != nil {
		if tooLarge(err) {
			dto.PayloadTooLargeError(ctx, dto.MsgProofTooLarge)
			return
		}
		dto.BadResponseError(ctx, dto.MsgMissingProof)
		return
	}

	filename, err := s.uploads.Save(proof)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to store payment proof")
		dto.InternalServerError(ctx, dto.MsgUploadFailed)
		return
	}

	p, err := s.appendParticipation(ctx.Request.Context(), req, boletos, filename)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to record participation")
		if rmErr := s.uploads.Remove(filename); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("file", filename).Msg("failed to remove orphaned payment proof")
		}
		dto.InternalServerError(ctx, dto.MsgStoreUnavailable)
		return
	}

	s.log.Info().
		Str("participation_id", p.ID).
		Str("raffle", p.Raffle).
		Float64("boletos", p.TicketsRequested).
		Msg("participation received")

	dto.SuccessResponse(ctx, dto.SubmitResponse{
		Message: dto.MsgSubmitted,
		ID:      p.ID,
	})
}

func (s *service) appendParticipation(
	ctx context.Context,
	req dto.SubmitParticipationRequest,
	boletos float64,
	filename string,
) (model.Participation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.Load(ctx)
	if err != nil {
		return model.Participation{}, fmt.Errorf("s.store.Load -> %w", err)
	}

	now := s.now().UTC()
	p := model.Participation{
		ID:                    nextID(all, now),
		FullName:              req.FullName,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Country:               req.Country,
		Raffle:                req.Raffle,
		TicketsRequested:      boletos,
		Status:                model.StatusPending,
		AssignedTicketNumbers: []int{},
		PaymentProofFilename:  filename,
		SubmittedAt:           now,
	}

	all = append(all, p)
	s.save(ctx, all)
	return p, nil
}

func (s *service) Confirm(ctx *ginext.Context) {
	id := ctx.Param("id")

	p, number, err := s.confirmParticipation(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrParticipationNotFound):
			dto.NotFoundError(ctx, dto.MsgNotFound)
		case errors.Is(err, errAlreadyConfirmed):
			dto.BadResponseError(ctx, dto.MsgAlreadyConfirmed)
		case errors.Is(err, ticket.ErrTicketSpaceExhausted):
			s.log.Error().Err(err).Str("participation_id", id).Msg("failed to draw ticket number")
			dto.InternalServerError(ctx, dto.MsgTicketsExhausted)
		default:
			s.log.Error().Err(err).Str("participation_id", id).Msg("failed to confirm participation")
			dto.InternalServerError(ctx, dto.MsgStoreUnavailable)
		}
		return
	}

	s.log.Info().
		Str("participation_id", p.ID).
		Int("ticket", number).
		Msg("participation confirmed")

	// The confirmation stays persisted even when the notification fails.
	if err := s.notifier.SendTicketEmail(ctx.Request.Context(), p.Email, number); err != nil {
		s.log.Error().Err(err).Str("participation_id", p.ID).Msg("failed to notify participant")
		dto.InternalServerError(ctx, dto.MsgEmailFailed)
		return
	}

	msg := dto.MsgConfirmed
	if s.opts.QueuedNotifications {
		msg = dto.MsgConfirmedQueued
	}
	dto.SuccessResponse(ctx, dto.ConfirmResponse{
		Message:      msg,
		NumeroBoleto: number,
	})
}

func (s *service) confirmParticipation(ctx context.Context, id string) (model.Participation, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.Load(ctx)
	if err != nil {
		return model.Participation{}, 0, fmt.Errorf("s.store.Load -> %w", err)
	}

	i, err := repo.FindByID(all, id)
	if err != nil {
		return model.Participation{}, 0, err
	}
	p := &all[i]
	if p.IsConfirmed() {
		return model.Participation{}, 0, errAlreadyConfirmed
	}

	number, err := s.drawTicket(all)
	if err != nil {
		return model.Participation{}, 0, err
	}

	p.Status = model.StatusConfirmed
	p.AssignedTicketNumbers = []int{number}
	s.save(ctx, all)

	return *p, number, nil
}

func (s *service) drawTicket(all []model.Participation) (int, error) {
	if !s.opts.UniqueTickets {
		return s.tickets.Generate(), nil
	}
	taken := make(map[int]struct{})
	for _, p := range all {
		for _, n := range p.AssignedTicketNumbers {
			taken[n] = struct{}{}
		}
	}
	return s.tickets.GenerateUnique(taken)
}

// tooLarge reports whether reading the body hit the server.max_upload_mb cap.
func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// save never reports failure to the caller; a lost write is only logged.
func (s *service) save(ctx context.Context, all []model.Participation) {
	if err := s.store.Save(ctx, all); err != nil {
		s.log.Error().Err(err).Int("count", len(all)).Msg("failed to save participations")
	}
}

// nextID is the submission time in milliseconds, bumped past any id already taken.
func nextID(all []model.Participation, now time.Time) string {
	taken := make(map[string]struct{}, len(all))
	for _, p := range all {
		taken[p.ID] = struct{}{}
	}
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}
