package rest

import (
	"errors"
	"strconv"

	"github.com/alessandronigro/corsi-backoffice/internal/application"
	"github.com/alessandronigro/corsi-backoffice/internal/application/dto"
	"github.com/alessandronigro/corsi-backoffice/internal/application/errs"
	"github.com/gofiber/fiber/v2"
)

type Server struct {
	handlers *application.Handlers
}

func NewServer(handlers *application.Handlers) *Server {
	return &Server{handlers: handlers}
}

func RegisterHandlers(app *fiber.App, s *Server) {
	app.Post("/enrollments/import", s.ImportSheet)
	app.Post("/orders/:id/process", s.ProcessOrder)
	app.Get("/orders/:id/summary", s.OrderSummary)
	app.Post("/orders/:id/reminder", s.SendReminder)
}

func (s *Server) ImportSheet(c *fiber.Ctx) error {
	var req dto.ImportSheetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.ImportSheet.Execute(c.Context(), req)
	if err != nil {
		return c.Status(statusFor(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) ProcessOrder(c *fiber.Ctx) error {
	orderID, err := orderParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}
	sendEmail := c.QueryBool("sendEmail", true)

	resp, err := s.handlers.ProcessOrder.Execute(c.Context(), orderID, sendEmail)
	if err != nil {
		return c.Status(statusFor(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func (s *Server) OrderSummary(c *fiber.Ctx) error {
	orderID, err := orderParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	res, err := s.handlers.OrderSummary.Build(c.Context(), orderID)
	if err != nil {
		return c.Status(statusFor(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(dto.OrderSummaryResponse{
		OrderID: orderID,
		Subject: res.Subject,
		HTML:    res.HTML,
		Courses: res.Courses,
	})
}

func (s *Server) SendReminder(c *fiber.Ctx) error {
	orderID, err := orderParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	resp, err := s.handlers.SendReminder.Execute(c.Context(), orderID)
	if err != nil {
		return c.Status(statusFor(err)).JSON(dto.ErrorResponse{Error: err.Error()})
	}

	return c.Status(fiber.StatusOK).JSON(resp)
}

func orderParam(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

// statusFor maps the error taxonomy onto HTTP classes: resolution and
// validation problems are the client's, connectivity is the upstream's.
func statusFor(err error) int {
	var resolution errs.ResolutionError
	var validation errs.ValidationError
	var connectivity errs.ConnectivityError
	var configuration errs.ConfigurationError
	switch {
	case errors.As(err, &resolution), errors.As(err, &validation):
		return fiber.StatusBadRequest
	case errors.As(err, &connectivity):
		return fiber.StatusBadGateway
	case errors.As(err, &configuration):
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}
