package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"collab-service/internal/apperrors"
	"collab-service/internal/models"
	"collab-service/internal/observability"
	"collab-service/internal/payment"
	"collab-service/internal/repositories"
	"collab-service/internal/telemetry"
	"collab-service/internal/ws"
)

// PaymentGateway builds checkout links and verifies result callbacks.
type PaymentGateway interface {
	PaymentURL(invID int64, outSum float64, description string) string
	VerifyResult(outSum, invID, sig string) bool
}

// PaymentHandler runs card checkout and the gateway result callback.
type PaymentHandler struct {
	auditor
	payments repositories.PaymentRepository
	cards    repositories.CardRepository
	projects repositories.ProjectRepository
	gateway  PaymentGateway
	notifier UserNotifier
	logger   *logrus.Logger
}

func NewPaymentHandler(payments repositories.PaymentRepository, cards repositories.CardRepository, projects repositories.ProjectRepository, gateway PaymentGateway, notifier UserNotifier, audit *telemetry.AuditEmitter, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		auditor:  auditor{audit: audit},
		payments: payments,
		cards:    cards,
		projects: projects,
		gateway:  gateway,
		notifier: notifier,
		logger:   logger,
	}
}

// Checkout opens a pending payment for a draft card and returns the hosted checkout link.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	card, err := h.cards.GetByID(ctx, c.Param("id"))
	if errors.Is(err, repositories.ErrCardNotFound) {
		apperrors.Respond(c, apperrors.NotFound("card not found"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load card", err))
		return
	}

	project, ok := loadProject(c, h.projects, card.ProjectID)
	if !ok {
		return
	}
	if project.OwnerID != userID {
		apperrors.Respond(c, apperrors.Forbidden("only the project owner can pay for a card"))
		return
	}
	if card.Status != models.CardDraft {
		apperrors.Respond(c, apperrors.Conflict("card is not a draft"))
		return
	}
	if card.Reward <= 0 {
		apperrors.Respond(c, apperrors.BadRequest("card reward must be positive"))
		return
	}

	pay, err := h.payments.Create(ctx, userID, card.ID, card.Reward)
	if errors.Is(err, repositories.ErrCardNotFound) {
		apperrors.Respond(c, apperrors.Conflict("card is not a draft"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not create payment", err))
		return
	}

	h.emitAudit(c, "INFO", "payment created")
	c.JSON(http.StatusCreated, gin.H{
		"paymentUrl": h.gateway.PaymentURL(pay.ID, pay.Amount, "Publication: "+card.Title),
		"invoiceId":  pay.ID,
	})
}

// Callback handles the gateway result notification. Repeated notifications for a
// paid invoice are acknowledged again.
func (h *PaymentHandler) Callback(c *gin.Context) {
	outSum, invID, sig := callbackValue(c, "OutSum"), callbackValue(c, "InvId"), callbackValue(c, "SignatureValue")
	if !h.gateway.VerifyResult(outSum, invID, sig) {
		h.logger.WithField("inv_id", invID).Warn("payment callback with bad signature")
		apperrors.Respond(c, apperrors.BadRequest("bad signature"))
		return
	}

	id, err := strconv.ParseInt(invID, 10, 64)
	if err != nil {
		apperrors.Respond(c, apperrors.BadRequest("invalid InvId"))
		return
	}
	amount, err := strconv.ParseFloat(outSum, 64)
	if err != nil {
		apperrors.Respond(c, apperrors.BadRequest("invalid OutSum"))
		return
	}

	ctx := c.Request.Context()
	pending, err := h.payments.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrPaymentNotFound) {
		apperrors.Respond(c, apperrors.NotFound("payment not found"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not load payment", err))
		return
	}
	if math.Abs(pending.Amount-amount) >= 0.005 {
		apperrors.Respond(c, apperrors.BadRequest("amount mismatch"))
		return
	}

	paid, err := h.payments.Complete(ctx, id)
	if errors.Is(err, repositories.ErrPaymentSuperseded) {
		h.logger.WithFields(logrus.Fields{"payment_id": id, "card_id": pending.CardID}).Error("late payment for a card with a newer checkout, refund required")
		apperrors.Respond(c, apperrors.Conflict("payment superseded"))
		return
	}
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("could not complete payment", err))
		return
	}

	if pending.Status != models.PaymentPaid {
		h.announcePaid(c, paid)
	}
	c.String(http.StatusOK, payment.ResultAck(id))
}

func (h *PaymentHandler) announcePaid(c *gin.Context, paid models.Payment) {
	ctx := c.Request.Context()
	requestID := requestIDFromContext(c)

	_ = observability.PublishEvent(ctx, "payment.paid", observability.EventEnvelope{
		EventType: "payment",
		EventName: "paid",
		Payload: map[string]interface{}{
			"payment_id": paid.ID,
			"card_id":    paid.CardID,
			"user_id":    paid.UserID,
			"amount":     paid.Amount,
		},
	}, observability.BuildHeaders(requestID, observability.TraceIDFromContext(ctx)))

	if h.notifier != nil {
		if err := h.notifier.BroadcastToUser(paid.UserID, ws.EventPaymentConfirmed, gin.H{"invoiceId": paid.ID, "cardId": paid.CardID}); err != nil {
			h.logger.WithError(err).WithField("user_id", paid.UserID).Warn("payment notification failed")
		}
	}

	h.audit.Emit(ctx, "INFO", "payment completed", requestID, &paid.UserID)
}

func callbackValue(c *gin.Context, key string) string {
	if c.Request.Method == http.MethodPost {
		return c.PostForm(key)
	}
	return c.Query(key)
}
