package uploads

import (
	uploadsvc "teamhub-backend/internal/application/uploads"
	"teamhub-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles upload handlers with the service. Routes are expected
// behind middleware.AuthorizeOrgPermission on :orgId.
type Handlers struct {
	Service *uploadsvc.Service
}

type uploadRequest struct {
	FileName string `json:"file_name"`
}

// UploadOrgLogo POST /api/v1/uploads/:orgId/logo
func (h *Handlers) UploadOrgLogo(c *fiber.Ctx) error {
	return h.sign(c, uploadsvc.BucketLogos)
}

// UploadOrgDocument POST /api/v1/uploads/:orgId/document
func (h *Handlers) UploadOrgDocument(c *fiber.Ctx) error {
	return h.sign(c, uploadsvc.BucketDocuments)
}

func (h *Handlers) sign(c *fiber.Ctx, bucket string) error {
	var req uploadRequest
	if err := c.BodyParser(&req); err != nil || req.FileName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "file_name is required")
	}
	res, err := h.Service.GetSignedUploadURL(c.UserContext(), bucket, c.Params("orgId"), req.FileName)
	if err != nil {
		return err
	}
	return response.Success(c, "Upload URL generated", res, nil)
}
