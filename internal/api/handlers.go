package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "form-digitizer/internal/common/errors"
	"form-digitizer/internal/common/storage"
	"form-digitizer/internal/export"
	"form-digitizer/internal/ingest"
	"form-digitizer/internal/models"
	"form-digitizer/internal/records"

	"github.com/gin-gonic/gin"
)

// ==========================
// Access
// ==========================

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, "login", badBody(err))
		return
	}
	sess, err := s.svc.Access.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(c, "login", err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) logout(c *gin.Context) {
	if err := s.svc.Access.Logout(c.Request.Context(), bearerToken(c)); err != nil {
		s.respondError(c, "logout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, currentSession(c))
}

func (s *Server) listUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": s.svc.Access.ListUsers(c.Request.Context())})
}

func (s *Server) saveUser(c *gin.Context) {
	var u models.UserAccount
	if err := c.ShouldBindJSON(&u); err != nil {
		s.respondError(c, "users.save", badBody(err))
		return
	}
	u.Username = c.Param("username")
	saved, err := s.svc.Access.SaveUser(c.Request.Context(), u)
	if err != nil {
		s.respondError(c, "users.save", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteUser(c *gin.Context) {
	if err := s.svc.Access.DeleteUser(c.Request.Context(), c.Param("username")); err != nil {
		s.respondError(c, "users.delete", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ==========================
// Branding
// ==========================

func (s *Server) getBranding(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Branding.Get())
}

func (s *Server) saveBranding(c *gin.Context) {
	var cfg models.AppConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		s.respondError(c, "branding.save", badBody(err))
		return
	}
	saved, err := s.svc.Branding.Save(c.Request.Context(), cfg)
	if err != nil {
		s.respondError(c, "branding.save", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

// ==========================
// Records
// ==========================

func (s *Server) uploadRecords(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	form, err := c.MultipartForm()
	if err != nil {
		s.respondError(c, "records.upload", apperrors.NewValidationError(map[string]string{
			"files": "Upload must be multipart form data within the size limit",
		}))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		s.respondError(c, "records.upload", apperrors.NewValidationError(map[string]string{
			"files": "At least one image is required",
		}))
		return
	}

	uploads := make([]ingest.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			s.respondError(c, "records.upload", err)
			return
		}
		raw, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.respondError(c, "records.upload", err)
			return
		}

		contentType := uploadMIME(raw, fh.Header.Get("Content-Type"))
		if contentType == "" {
			s.respondError(c, "records.upload", apperrors.NewValidationError(map[string]string{
				"files": fmt.Sprintf("%s is not an image", fh.Filename),
			}))
			return
		}
		uploads = append(uploads, ingest.Upload{
			FileName: fh.Filename,
			DataURI:  "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(raw),
		})
	}

	created := s.svc.Ingest.IngestFiles(c.Request.Context(), uploads)
	c.JSON(http.StatusAccepted, gin.H{"records": created})
}

func (s *Server) submitManual(c *gin.Context) {
	var data models.RegistrationData
	if err := c.ShouldBindJSON(&data); err != nil {
		s.respondError(c, "records.manual", badBody(err))
		return
	}
	rec, err := s.svc.Ingest.SubmitManual(c.Request.Context(), data)
	if err != nil {
		s.respondError(c, "records.manual", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) listRecords(c *gin.Context) {
	f := records.Filter{
		Query:      c.Query("q"),
		Status:     models.Status(c.Query("status")),
		SyncStatus: models.SyncStatus(c.Query("syncStatus")),
		Source:     models.Source(c.Query("source")),
	}
	list := s.svc.Ingest.List(f)

	counts := map[models.Status]int{}
	for _, r := range s.svc.Ingest.List(records.Filter{}) {
		counts[r.Status]++
	}
	c.JSON(http.StatusOK, gin.H{"records": list, "total": len(list), "counts": counts})
}

func (s *Server) getRecord(c *gin.Context) {
	rec, err := s.svc.Ingest.Get(c.Param("id"))
	if err != nil {
		s.respondError(c, "records.get", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) editRecord(c *gin.Context) {
	var data models.RegistrationData
	if err := c.ShouldBindJSON(&data); err != nil {
		s.respondError(c, "records.edit", badBody(err))
		return
	}
	rec, err := s.svc.Ingest.EditRecord(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		s.respondError(c, "records.edit", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) removeRecord(c *gin.Context) {
	if err := s.svc.Ingest.RemoveRecord(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, "records.remove", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) clearRecords(c *gin.Context) {
	n := s.svc.Ingest.ClearAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": n})
}

func (s *Server) recordImage(c *gin.Context) {
	id := c.Param("id")
	uri, err := s.svc.Records.Image(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(c, "records.image", apperrors.NewRecordNotFoundError(id))
		return
	}
	if err != nil {
		s.respondError(c, "records.image", apperrors.NewStorageFailedError("records.image", err))
		return
	}

	contentType, payload := "application/octet-stream", uri
	if strings.HasPrefix(uri, "data:") {
		if i := strings.IndexByte(uri, ','); i > 0 {
			contentType = strings.TrimSuffix(strings.TrimPrefix(uri[:i], "data:"), ";base64")
			payload = uri[i+1:]
		}
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.respondError(c, "records.image", err)
		return
	}
	c.Data(http.StatusOK, contentType, raw)
}

func (s *Server) syncRecord(c *gin.Context) {
	rec, err := s.svc.Ingest.SyncRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, "records.sync", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) syncAll(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Ingest.SyncAll(c.Request.Context()))
}

// ==========================
// Dashboard & Export
// ==========================

func (s *Server) getDashboard(c *gin.Context) {
	force, _ := strconv.ParseBool(c.Query("refresh"))
	c.JSON(http.StatusOK, s.svc.Dashboard.Refresh(c.Request.Context(), force))
}

func (s *Server) exportCSV(c *gin.Context) {
	s.export(c, "csv", "text/csv; charset=utf-8", export.CSV)
}

func (s *Server) exportXLSX(c *gin.Context) {
	s.export(c, "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.XLSX)
}

func (s *Server) export(c *gin.Context, ext, contentType string, render func([]models.ProcessingRecord) ([]byte, error)) {
	out, err := render(s.svc.Ingest.List(records.Filter{}))
	if errors.Is(err, export.ErrNothingToExport) {
		s.respondError(c, "export."+ext, apperrors.NewNothingToExportError())
		return
	}
	if err != nil {
		s.respondError(c, "export."+ext, err)
		return
	}
	name := fmt.Sprintf("registrations_%s.%s", time.Now().Format("2006-01-02"), ext)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, out)
}

// uploadMIME sniffs the image type and falls back to the part's declared
// image/* type for formats the sniffer does not know, such as HEIC.
// It returns "" for anything that is not an image.
func uploadMIME(raw []byte, declared string) string {
	if sniffed := http.DetectContentType(raw); strings.HasPrefix(sniffed, "image/") {
		return sniffed
	}
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return ""
}

func badBody(err error) error {
	return apperrors.NewValidationError(map[string]string{"body": "Request body is not valid JSON: " + err.Error()})
}
