package directory

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/careband/careband/internal/platform/auth"
	"github.com/careband/careband/pkg/pagination"
)

// maxPhotoBytes caps patient photo uploads.
const maxPhotoBytes = 4 << 20

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients", h.ListPatients)
	api.POST("/patients", h.AddPatient)
	api.GET("/patients/:id", h.GetPatient)
	api.PUT("/patients/:id", h.UpdatePatient)
	api.DELETE("/patients/:id", h.DeletePatient)
	api.PUT("/patients/:id/band", h.UpdateBand)
	api.GET("/patients/:id/photo", h.GetPatientPhoto)
	api.PUT("/patients/:id/photo", h.SetPatientPhoto)

	api.GET("/patients/:id/medicines", h.ListMedicines)
	api.POST("/patients/:id/medicines", h.AddMedicine)
	api.GET("/patients/:id/medicines/:medicineId", h.GetMedicine)
	api.PUT("/patients/:id/medicines/:medicineId", h.UpdateMedicine)
	api.DELETE("/patients/:id/medicines/:medicineId", h.DeleteMedicine)
}

// toHTTPError maps the directory error taxonomy onto HTTP statuses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrPatientNotFound),
		errors.Is(err, ErrMedicineNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrPhoneNumberInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoPatient):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

func currentUser(c echo.Context) (int64, error) {
	uid, ok := auth.CurrentUserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return uid, nil
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	patients, err := h.svc.ListPatients(c.Request().Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Window(patients, pg), len(patients), pg.Limit, pg.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	summary, err := h.svc.GetPatient(c.Request().Context(), userID, patientID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) AddPatient(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var model PatientCreate
	if err := c.Bind(&model); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.AddPatient(c.Request().Context(), userID, &model); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var model PatientUpdate
	if err := c.Bind(&model); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.UpdatePatient(c.Request().Context(), userID, patientID, &model); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateBand(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var model BandData
	if err := c.Bind(&model); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.UpdateBand(c.Request().Context(), userID, patientID, &model); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.svc.DeletePatient(c.Request().Context(), userID, patientID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetPatientPhoto(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	photo, err := h.svc.GetPatientPhoto(c.Request().Context(), userID, patientID)
	if err != nil {
		return toHTTPError(err)
	}
	if len(photo) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Blob(http.StatusOK, "application/octet-stream", photo)
}

func (h *Handler) SetPatientPhoto(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	photo, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPhotoBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "read photo body")
	}
	if len(photo) > maxPhotoBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "photo too large")
	}

	if err := h.svc.SetPatientPhoto(c.Request().Context(), userID, patientID, photo); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Medicines --

func (h *Handler) ListMedicines(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	medicines, err := h.svc.ListMedicines(c.Request().Context(), userID, patientID)
	if err != nil {
		return toHTTPError(err)
	}

	pg := pagination.FromContext(c)
	return c.JSON(http.StatusOK, pagination.NewResponse(pagination.Window(medicines, pg), len(medicines), pg.Limit, pg.Offset))
}

func (h *Handler) GetMedicine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicineID, err := pathID(c, "medicineId")
	if err != nil {
		return err
	}

	summary, err := h.svc.GetMedicine(c.Request().Context(), userID, patientID, medicineID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) AddMedicine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var model MedicineCreate
	if err := c.Bind(&model); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.AddMedicine(c.Request().Context(), userID, patientID, &model); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusCreated)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicineID, err := pathID(c, "medicineId")
	if err != nil {
		return err
	}

	var model MedicineUpdate
	if err := c.Bind(&model); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.UpdateMedicine(c.Request().Context(), userID, patientID, medicineID, &model); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	patientID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	medicineID, err := pathID(c, "medicineId")
	if err != nil {
		return err
	}

	if err := h.svc.DeleteMedicine(c.Request().Context(), userID, patientID, medicineID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
