package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"picture-catalog/internal/domain"
	"picture-catalog/internal/middleware"
	"picture-catalog/internal/service/picture"
)

type PictureHandler struct {
	pictureService picture.Service
	timeout        time.Duration
}

func NewPictureHandler(pictureService picture.Service, timeout time.Duration) *PictureHandler {
	return &PictureHandler{
		pictureService: pictureService,
		timeout:        timeout,
	}
}

func (h *PictureHandler) Create(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	sub, err := parseSubmission(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := h.pictureService.Create(ctx, actor, sub)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(p)
}

func (h *PictureHandler) Get(c *fiber.Ctx) error {
	id, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := h.pictureService.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *PictureHandler) Update(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	id, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	sub, err := parseSubmission(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	p, err := h.pictureService.Edit(ctx, actor, id, sub)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(p)
}

func (h *PictureHandler) Delete(c *fiber.Ctx) error {
	actor, ok := middleware.GetActor(c)
	if !ok {
		return middleware.Unauthorized("User not authenticated")
	}

	id, err := parseUUIDParam(c, "pictureId")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c, h.timeout)
	defer cancel()

	if err := h.pictureService.Delete(ctx, actor, id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// parseSubmission accepts either a JSON body with a base64 "file" or a
// multipart form with a "file" part.
func parseSubmission(c *fiber.Ctx) (domain.PictureSubmission, error) {
	var sub domain.PictureSubmission

	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if err := c.BodyParser(&sub); err != nil {
			var ingestionErr *domain.IngestionError
			if errors.As(err, &ingestionErr) {
				return sub, ingestionErr
			}
			return sub, middleware.BadRequest("Invalid request body")
		}
		return sub, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return sub, middleware.BadRequest("Invalid multipart form")
	}

	value := func(key string) (string, bool) {
		v, ok := form.Value[key]
		if !ok || len(v) == 0 {
			return "", false
		}
		return v[0], true
	}

	if v, ok := value("name"); ok {
		sub.Name = domain.StringValue(v)
	}
	if v, ok := value("source"); ok {
		sub.Source = domain.StringValue(v)
	}
	if v, ok := value("description"); ok {
		sub.Description = domain.NullableString{Set: true}
		if v != "" {
			sub.Description = domain.StringValue(v)
		}
	}
	if v, ok := value("taken_at"); ok {
		sub.TakenAt = domain.NullableTime{Set: true}
		if v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return sub, middleware.BadRequest("taken_at must be an RFC3339 timestamp")
			}
			sub.TakenAt.Value = &t
		}
	}
	if sub.CatalogID, err = formUUID(value, "catalog_id"); err != nil {
		return sub, err
	}
	if sub.PlaceID, err = formUUID(value, "place_id"); err != nil {
		return sub, err
	}
	if v, ok := value("license"); ok && v != "" {
		sub.License = &domain.LicenseInput{Name: &v}
		if edited, ok := value("license_is_edited"); ok {
			b, err := strconv.ParseBool(edited)
			if err != nil {
				return sub, middleware.BadRequest("license_is_edited must be a boolean")
			}
			sub.License.IsEdited = &b
		}
	}
	if v, ok := value("original_filename"); ok {
		sub.OriginalFilename = v
	}

	if files := form.File["file"]; len(files) > 0 {
		content, err := readFormFile(files[0])
		if err != nil {
			return sub, &domain.IngestionError{Reason: "file is unreadable", Err: err}
		}
		sub.File = content
		if sub.OriginalFilename == "" {
			sub.OriginalFilename = files[0].Filename
		}
	}

	return sub, nil
}

func formUUID(value func(string) (string, bool), key string) (domain.NullableUUID, error) {
	v, ok := value(key)
	if !ok {
		return domain.NullableUUID{}, nil
	}
	if v == "" {
		return domain.NullableUUID{Set: true}, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return domain.NullableUUID{}, middleware.BadRequest("Invalid " + key)
	}
	return domain.UUIDValue(id), nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, middleware.BadRequest("Invalid picture ID")
	}
	return id, nil
}

func requestContext(c *fiber.Ctx, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), timeout)
}
