package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/SeakMengs/certportal/internal/mailer"
	"github.com/SeakMengs/certportal/internal/metrics"
	"github.com/SeakMengs/certportal/internal/model"
	"github.com/SeakMengs/certportal/internal/queue"
	"github.com/SeakMengs/certportal/internal/repository"
	"github.com/SeakMengs/certportal/internal/util"
	"github.com/SeakMengs/certportal/pkg/certgen"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CertificateController struct {
	*baseController
}

const (
	ErrNoCertificatesFound = "no certificates found for this email"
	ErrCertificateNoEvent  = "certificate is not linked to an event and cannot be regenerated"
)

type emailRequest struct {
	Email string `json:"email" form:"email" binding:"required,email"`
}

// Search is public: anyone can look up the certificates of an email address.
func (cc CertificateController) Search(ctx *gin.Context) {
	var body emailRequest
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	certificates, err := cc.app.Repository.Certificate.SearchByEmail(ctx, nil, body.Email)
	if err != nil {
		cc.respondError(ctx, "Failed to search certificates", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificates": certificates,
	})
}

// EmailCertificates sends the participant the list of their certificates.
func (cc CertificateController) EmailCertificates(ctx *gin.Context) {
	var body emailRequest
	if err := ctx.ShouldBind(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	email := certgen.NormalizeEmail(body.Email)
	certificates, err := cc.app.Repository.Certificate.SearchByEmail(ctx, nil, email)
	if err != nil {
		cc.respondError(ctx, "Failed to search certificates", err)
		return
	}

	if len(certificates) == 0 {
		util.ResponseFailed(ctx, http.StatusNotFound, ErrNoCertificatesFound, util.GenerateErrorMessages(errors.New(ErrNoCertificatesFound), "email"), nil)
		return
	}

	data := cc.certificatesMailData(email, certificates)

	if cc.app.QueueEnabled() {
		job, err := queue.NewCertificatesMailJob(email, data)
		if err == nil {
			err = queue.PublishMailJob(cc.app.Queue, job)
		}
		if err != nil {
			cc.respondError(ctx, "Failed to queue email", err)
			return
		}

		util.ResponseStatus(ctx, http.StatusAccepted, gin.H{
			"count": len(certificates),
		})
		return
	}

	if _, err := cc.app.Mailer.Send(mailer.CERTIFICATES_TEMPLATE, email, data); err != nil {
		cc.respondError(ctx, "Failed to send email", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"count": len(certificates),
	})
}

func (cc CertificateController) certificatesMailData(email string, certificates []model.Certificate) mailer.CertificatesMailData {
	items := make([]mailer.CertificateMailItem, 0, len(certificates))
	for _, c := range certificates {
		items = append(items, mailer.CertificateMailItem{
			Name:        c.Name,
			EventName:   c.EventName,
			DateOfEvent: c.DateOfEvent,
			Category:    c.Category,
			URL:         c.CertificateURL,
		})
	}

	return mailer.CertificatesMailData{
		AppName:      util.GetAppName(),
		LogoURL:      util.GetAppLogoURL(cc.app.Config.FrontendURL),
		SearchURL:    cc.app.Config.FrontendURL,
		Email:        email,
		Certificates: items,
	}
}

func (cc CertificateController) ListCertificates(ctx *gin.Context) {
	type Query struct {
		EventId string `form:"eventId" binding:"omitempty,uuid"`
		Search  string `form:"search" binding:"cmax=200"`
	}
	var q Query

	if err := ctx.ShouldBindQuery(&q); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}
	page, pageSize := cc.getPage(ctx)

	certificates, total, err := cc.app.Repository.Certificate.List(ctx, nil, repository.CertificateFilter{
		EventId: q.EventId,
		Search:  q.Search,
	}, page, pageSize)
	if err != nil {
		cc.respondError(ctx, "Failed to list certificates", err)
		return
	}

	util.ResponsePaginated(ctx, certificates, total, page, pageSize)
}

func (cc CertificateController) GetCertificate(ctx *gin.Context) {
	certificateId, ok := cc.certificateIdParam(ctx)
	if !ok {
		return
	}

	certificate, err := cc.app.Repository.Certificate.GetById(ctx, nil, certificateId)
	if err != nil {
		cc.respondError(ctx, "Certificate not found", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": certificate,
	})
}

type certificateRequest struct {
	Email          string   `json:"email" binding:"required,email"`
	Name           string   `json:"name" binding:"required,strNotEmpty,cmax=200"`
	EventID        string   `json:"eventId" binding:"omitempty,uuid"`
	EventName      string   `json:"eventName" binding:"cmax=200"`
	DateOfEvent    string   `json:"dateOfEvent" binding:"cmax=50"`
	Category       string   `json:"category" binding:"cmax=100"`
	Tags           []string `json:"tags"`
	CertificateURL string   `json:"certificateUrl" binding:"required,url"`
}

// toModel fills the event name and date from the linked event when they are left empty.
func (cc CertificateController) toModel(ctx *gin.Context, body certificateRequest) (*model.Certificate, error) {
	certificate := &model.Certificate{
		Email:          certgen.NormalizeEmail(body.Email),
		Name:           strings.TrimSpace(body.Name),
		EventName:      strings.TrimSpace(body.EventName),
		DateOfEvent:    strings.TrimSpace(body.DateOfEvent),
		Category:       strings.TrimSpace(body.Category),
		Tags:           datatypes.JSONSlice[string](body.Tags),
		CertificateURL: strings.TrimSpace(body.CertificateURL),
	}

	if key, ok := cc.app.Objects.KeyFromURL(certificate.CertificateURL); ok {
		certificate.ObjectKey = key
	}

	if body.EventID != "" {
		event, err := cc.app.Repository.Event.GetById(ctx, nil, body.EventID)
		if err != nil {
			return nil, err
		}

		certificate.EventID = &event.ID
		if certificate.EventName == "" {
			certificate.EventName = event.Name
		}
		if certificate.DateOfEvent == "" {
			certificate.DateOfEvent = event.EventDate
		}
	}

	if certificate.EventName == "" {
		return nil, fmt.Errorf("%w: eventName is required when no event is linked", certgen.ErrValidation)
	}

	return certificate, nil
}

func (cc CertificateController) CreateCertificate(ctx *gin.Context) {
	var body certificateRequest
	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	certificate, err := cc.toModel(ctx, body)
	if err != nil {
		cc.respondError(ctx, "Invalid certificate", err)
		return
	}

	certificate, err = cc.app.Repository.Certificate.Create(ctx, nil, certificate)
	if err != nil {
		cc.respondError(ctx, "Failed to create certificate", err)
		return
	}

	util.ResponseStatus(ctx, http.StatusCreated, gin.H{
		"certificate": certificate,
	})
}

func (cc CertificateController) UpdateCertificate(ctx *gin.Context) {
	var body certificateRequest

	certificateId, ok := cc.certificateIdParam(ctx)
	if !ok {
		return
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
		return
	}

	certificate, err := cc.toModel(ctx, body)
	if err != nil {
		cc.respondError(ctx, "Invalid certificate", err)
		return
	}

	certificate, err = cc.app.Repository.Certificate.Update(ctx, nil, certificateId, certificate)
	if err != nil {
		cc.respondError(ctx, "Failed to update certificate", err)
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"certificate": certificate,
	})
}

// The stored document is kept, only the record goes.
func (cc CertificateController) DeleteCertificate(ctx *gin.Context) {
	certificateId, ok := cc.certificateIdParam(ctx)
	if !ok {
		return
	}

	if _, err := cc.app.Repository.Certificate.Delete(ctx, nil, certificateId); err != nil {
		cc.respondError(ctx, "Failed to delete certificate", err)
		return
	}

	util.ResponseSuccess(ctx, nil)
}

// BulkUpload imports already produced certificates from a CSV file or a JSON
// list. Incomplete rows are skipped and counted.
func (cc CertificateController) BulkUpload(ctx *gin.Context) {
	var rows []certgen.CertificateRow
	skipped := 0

	if file, err := ctx.FormFile("csvFile"); err == nil {
		src, err := file.Open()
		if err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Failed to read CSV", util.GenerateErrorMessages(err, "csvFile"), nil)
			return
		}
		defer src.Close()

		records, err := certgen.ReadCSV(src)
		if err == nil {
			rows, skipped, err = certgen.ParseCertificateRows(records)
		}
		if err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid CSV", util.GenerateErrorMessages(err, "csvFile"), nil)
			return
		}
	} else {
		type Request struct {
			Certificates []certgen.CertificateRow `json:"certificates" binding:"required"`
		}
		var body Request
		if err := ctx.ShouldBindJSON(&body); err != nil {
			util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid request", util.GenerateErrorMessages(err), nil)
			return
		}
		rows = body.Certificates
	}

	certificates := make([]*model.Certificate, 0, len(rows))
	for _, row := range rows {
		row.Email = certgen.NormalizeEmail(row.Email)
		if err := cc.app.Validate.Struct(row); err != nil {
			skipped++
			continue
		}

		certificate := &model.Certificate{
			Email:          row.Email,
			Name:           strings.TrimSpace(row.Name),
			EventName:      strings.TrimSpace(row.EventName),
			DateOfEvent:    strings.TrimSpace(row.DateOfEvent),
			Category:       strings.TrimSpace(row.Category),
			Tags:           datatypes.JSONSlice[string](row.Tags),
			CertificateURL: strings.TrimSpace(row.CertificateURL),
		}
		if key, ok := cc.app.Objects.KeyFromURL(certificate.CertificateURL); ok {
			certificate.ObjectKey = key
		}
		certificates = append(certificates, certificate)
	}

	if len(certificates) == 0 {
		util.ResponseFailed(ctx, http.StatusBadRequest, "No valid rows", util.GenerateErrorMessages(errors.New("every row is missing email, name, event name or certificate url"), "certificates"), gin.H{
			"inserted": 0,
			"skipped":  skipped,
		})
		return
	}

	if _, err := cc.app.Repository.Certificate.CreateMany(ctx, nil, certificates); err != nil {
		cc.respondError(ctx, "Failed to import certificates", err)
		return
	}

	util.ResponseStatus(ctx, http.StatusCreated, gin.H{
		"inserted": len(certificates),
		"skipped":  skipped,
	})
}

// Regenerate renders the certificate again from its stored row, e.g. after the
// template placement was fixed.
func (cc CertificateController) Regenerate(ctx *gin.Context) {
	certificateId, ok := cc.certificateIdParam(ctx)
	if !ok {
		return
	}

	certificate, err := cc.app.Repository.Certificate.GetById(ctx, nil, certificateId)
	if err != nil {
		cc.respondError(ctx, "Certificate not found", err)
		return
	}

	if certificate.EventID == nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, ErrCertificateNoEvent, util.GenerateErrorMessages(errors.New(ErrCertificateNoEvent), "eventId"), nil)
		return
	}

	generator, err := cc.app.NewGenerator(1)
	if err != nil {
		cc.respondError(ctx, "Generator unavailable", err)
		return
	}

	report, err := generator.Generate(ctx, certgen.EventID(*certificate.EventID), []certgen.Participant{{
		Email:    certificate.Email,
		Name:     certificate.Name,
		Category: certificate.Category,
		Tags:     []string(certificate.Tags),
	}})
	metrics.ObserveBatch("sync", err)
	if err != nil {
		cc.respondError(ctx, "Failed to regenerate certificate", err)
		return
	}

	if report.Failed > 0 {
		util.ResponseFailed(ctx, http.StatusUnprocessableEntity, "Failed to regenerate certificate", util.GenerateErrorMessages(errors.New(strings.Join(report.Errors, "; ")), "certificate"), gin.H{
			"report": report,
		})
		return
	}

	util.ResponseSuccess(ctx, gin.H{
		"report": report,
	})
}

func (cc CertificateController) certificateIdParam(ctx *gin.Context) (string, bool) {
	id, err := parseUUIDParam(ctx, "certificateId")
	if err != nil {
		util.ResponseFailed(ctx, http.StatusBadRequest, "Invalid certificate id", util.GenerateErrorMessages(err, "certificateId"), nil)
		return "", false
	}
	return id, true
}
