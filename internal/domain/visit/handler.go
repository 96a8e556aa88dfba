package visit

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/eparchi/eparchi/internal/assistant"
	"github.com/eparchi/eparchi/internal/domain/patient"
	"github.com/eparchi/eparchi/internal/platform/auth"
	"github.com/eparchi/eparchi/internal/platform/blobstore"
	"github.com/eparchi/eparchi/pkg/pagination"
)

// Ingestor and Querier are the slices of the assistant pipelines the
// handler drives.
type Ingestor interface {
	ProcessPrescription(ctx context.Context, image []byte, mimeType, filename, patientID string) *assistant.UploadResult
	ProcessXray(ctx context.Context, image []byte, mimeType, filename, patientID string) *assistant.UploadResult
}

type Querier interface {
	Answer(ctx context.Context, question string, scope assistant.Scope) (*assistant.QueryResult, error)
}

type Handler struct {
	svc    *Service
	ingest Ingestor
	query  Querier
	blobs  blobstore.Store
}

func NewHandler(svc *Service, ingest Ingestor, query Querier, blobs blobstore.Store) *Handler {
	return &Handler{svc: svc, ingest: ingest, query: query, blobs: blobs}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	guarded := g.Group("", auth.RequireRole("doctor"))
	guarded.POST("/visits/create", h.CreateVisit)
	guarded.GET("/visits/history/:patient_id", h.History)
	guarded.GET("/visits/:id", h.GetVisit)
	guarded.POST("/visits/:id/upload", h.Upload)
	guarded.POST("/visits/:id/chat", h.Chat)
}

type createVisitRequest struct {
	PatientID string `json:"patient_id" form:"patient_id"`
	DoctorID  string `json:"doctor_id" form:"doctor_id"`
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var req createVisitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	patientID, err := uuid.Parse(req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}

	var doctorID *uuid.UUID
	if req.DoctorID != "" {
		id, err := uuid.Parse(req.DoctorID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		doctorID = &id
	}

	v, err := h.svc.StartVisit(c.Request().Context(), patientID, doctorID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) History(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patient_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
	}

	pg := pagination.FromContext(c)
	visits, total, err := h.svc.History(c.Request().Context(), patientID, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	detail, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, detail)
}

var xrayMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type uploadResponse struct {
	*assistant.UploadResult
	File        *FileRecord `json:"file,omitempty"`
	ChatMessage string      `json:"chat_message,omitempty"`
}

// Upload receives a document image, runs the matching ingestion pipeline,
// and on success appends a FileRecord plus a synthetic assistant message to
// the visit. Pipeline failures come back with status "error" in the body,
// not as a transport error.
func (h *Handler) Upload(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()

	v, err := h.svc.GetVisit(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	fileType := c.FormValue("file_type")
	if fileType == "" {
		fileType = FileTypePrescription
	}
	if fileType != FileTypePrescription && fileType != FileTypeXray {
		return echo.NewHTTPError(http.StatusBadRequest, "file_type must be prescription or xray")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if fileType == FileTypeXray && !xrayMIMETypes[mimeType] {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file type, upload an X-Ray image")
	}

	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	blob, err := h.blobs.Save(ctx, fileHeader.Filename, bytes.NewReader(image))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var result *assistant.UploadResult
	switch fileType {
	case FileTypeXray:
		result = h.ingest.ProcessXray(ctx, image, mimeType, fileHeader.Filename, v.PatientID.String())
	default:
		result = h.ingest.ProcessPrescription(ctx, image, mimeType, fileHeader.Filename, v.PatientID.String())
	}

	if result.Status != assistant.StatusSuccess {
		return c.JSON(http.StatusOK, uploadResponse{UploadResult: result})
	}

	f := &FileRecord{
		VisitID:   v.ID,
		FileID:    result.FileID,
		Filename:  fileHeader.Filename,
		FileType:  fileType,
		LocalPath: blob.Path,
		AISummary: result.Summary,
	}
	if err := h.svc.AppendFile(ctx, f); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	chatText := result.Summary.ChatText()
	if err := h.svc.AppendMessage(ctx, &Message{VisitID: v.ID, Sender: SenderAI, Text: chatText}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, uploadResponse{
		UploadResult: result,
		File:         f,
		ChatMessage:  chatText,
	})
}

type chatRequest struct {
	Query string `json:"query" form:"query"`
}

// Chat answers a doctor's question scoped to the visit's patient and, on
// success, appends the doctor message and the assistant's reply to the
// visit in that order.
func (h *Handler) Chat(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()

	v, err := h.svc.GetVisit(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "visit not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.query.Answer(ctx, req.Query, assistant.Scope{PatientID: v.PatientID.String()})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if result.Status == assistant.StatusSuccess {
		if err := h.svc.AppendMessage(ctx, &Message{VisitID: v.ID, Sender: SenderDoctor, Text: req.Query}); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.svc.AppendMessage(ctx, &Message{VisitID: v.ID, Sender: SenderAI, Text: result.Answer}); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, result)
}
