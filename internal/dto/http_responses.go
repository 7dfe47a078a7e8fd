package dto

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"
)

const (
	MsgMissingFields    = "Faltan datos obligatorios"
	MsgInvalidTickets   = "El número de boletos debe ser un valor positivo"
	MsgMissingProof     = "El comprobante es obligatorio"
	MsgProofTooLarge    = "El comprobante excede el tamaño máximo permitido"
	MsgUploadFailed     = "No se pudo guardar el comprobante"
	MsgNotFound         = "Participación no encontrada"
	MsgAlreadyConfirmed = "La participación ya ha sido confirmada"
	MsgEmailFailed      = "Hubo un error al enviar el correo"
	MsgTicketsExhausted = "No hay números de boleto disponibles"
	MsgStoreUnavailable = "El servicio no está disponible, intente más tarde"

	MsgSubmitted       = "Participación recibida, pendiente de confirmación"
	MsgConfirmed       = "Participación confirmada y correo enviado"
	MsgConfirmedQueued = "Participación confirmada, correo en cola de envío"
)

// SubmitParticipationRequest is the multipart form of POST /participation.
// Boletos stays last so a missing field is reported before a bad ticket count.
type SubmitParticipationRequest struct {
	FullName string `form:"fullName" validate:"required"`
	Phone    string `form:"phone" validate:"required"`
	Email    string `form:"email" validate:"required"`
	Country  string `form:"country" validate:"required"`
	Raffle   string `form:"raffle" validate:"required"`
	Boletos  string `form:"boletos" validate:"required,positivenumber"`
}

type SubmitResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type ConfirmResponse struct {
	Message      string `json:"message"`
	NumeroBoleto int    `json:"numeroBoleto"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// TicketNotification is the message body queued for the notification worker.
type TicketNotification struct {
	Email        string `json:"email"`
	NumeroBoleto int    `json:"numeroBoleto"`
}

func BadResponseError(c *ginext.Context, desc string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: desc})
}

func NotFoundError(c *ginext.Context, desc string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: desc})
}

func PayloadTooLargeError(c *ginext.Context, desc string) {
	c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: desc})
}

func InternalServerError(c *ginext.Context, desc string) {
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: desc})
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(http.StatusOK, data)
}
