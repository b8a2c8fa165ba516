package controller

import (
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"finance-qa-be/internal/dto"
	"finance-qa-be/internal/pkg/serverutils"
	"finance-qa-be/internal/service"
	"finance-qa-be/pkg/assistant"

	"github.com/gofiber/fiber/v2"
)

// MaxNotesUpload caps uploaded notes files.
const MaxNotesUpload = 1 << 20

var notesExtensions = map[string]bool{".txt": true, ".md": true}

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	Catalog(ctx *fiber.Ctx) error
	Samples(ctx *fiber.Ctx) error
	CreateSession(ctx *fiber.Ctx) error
	ShowSession(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	SetMode(ctx *fiber.Ctx) error
	SetTemperature(ctx *fiber.Ctx) error
	SetNotes(ctx *fiber.Ctx) error
	UploadNotes(ctx *fiber.Ctx) error
	ClearNotes(ctx *fiber.Ctx) error
	SetIncludeNotes(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	SendSample(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
}

func NewAssistantController(service service.IAssistantService) IAssistantController {
	return &assistantController{service: service}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant/v1")
	h.Get("/modes", c.Catalog)
	h.Get("/samples", c.Samples)

	h.Post("/sessions", c.CreateSession)
	h.Get("/sessions/:id", c.ShowSession)
	h.Delete("/sessions/:id", c.DeleteSession)

	h.Put("/sessions/:id/mode", c.SetMode)
	h.Put("/sessions/:id/temperature", c.SetTemperature)
	h.Put("/sessions/:id/notes", c.SetNotes)
	h.Post("/sessions/:id/notes/upload", c.UploadNotes)
	h.Delete("/sessions/:id/notes", c.ClearNotes)
	h.Put("/sessions/:id/notes/include", c.SetIncludeNotes)

	h.Post("/sessions/:id/chat", c.SendChat)
	h.Post("/sessions/:id/samples/:key", c.SendSample)
}

func (c *assistantController) Catalog(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get modes", c.service.Catalog(ctx.UserContext())))
}

func (c *assistantController) Samples(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success get sample prompts", c.service.Samples(ctx.UserContext())))
}

func (c *assistantController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *assistantController) ShowSession(ctx *fiber.Ctx) error {
	res, err := c.service.GetSession(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *assistantController) DeleteSession(ctx *fiber.Ctx) error {
	if err := c.service.DeleteSession(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

func (c *assistantController) SetMode(ctx *fiber.Ctx) error {
	var req dto.SetModeRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetMode(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set mode", res))
}

func (c *assistantController) SetTemperature(ctx *fiber.Ctx) error {
	var req dto.SetTemperatureRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetTemperature(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set temperature", res))
}

func (c *assistantController) SetNotes(ctx *fiber.Ctx) error {
	var req dto.SetNotesRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetNotes(ctx.UserContext(), ctx.Params("id"), req.Notes)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set notes", res))
}

// UploadNotes replaces the session notes with a .txt or .md file from the
// "file" form field.
func (c *assistantController) UploadNotes(ctx *fiber.Ctx) error {
	header, err := ctx.FormFile("file")
	if err != nil {
		return &assistant.ValidationError{Field: "file", Reason: "is required"}
	}

	if !notesExtensions[strings.ToLower(filepath.Ext(header.Filename))] {
		return &assistant.ValidationError{Field: "file", Reason: "must be a .txt or .md file"}
	}
	if header.Size > MaxNotesUpload {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "notes file exceeds 1MB")
	}

	file, err := header.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, MaxNotesUpload))
	if err != nil {
		return err
	}
	if !utf8.Valid(content) {
		return &assistant.ValidationError{Field: "file", Reason: "must be UTF-8 text"}
	}

	res, err := c.service.SetNotes(ctx.UserContext(), ctx.Params("id"), string(content))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload notes", res))
}

func (c *assistantController) ClearNotes(ctx *fiber.Ctx) error {
	res, err := c.service.ClearNotes(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success clear notes", res))
}

func (c *assistantController) SetIncludeNotes(ctx *fiber.Ctx) error {
	var req dto.SetIncludeNotesRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SetIncludeNotes(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set include notes", res))
}

func (c *assistantController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := parse(ctx, &req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *assistantController) SendSample(ctx *fiber.Ctx) error {
	res, err := c.service.SendSample(ctx.UserContext(), ctx.Params("id"), ctx.Params("key"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send sample prompt", res))
}

func parse(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return serverutils.ValidateRequest(req)
}
