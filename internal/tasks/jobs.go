package tasks

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/marketplace-service/internal/domain"
	"github.com/spec-kit/marketplace-service/internal/notify"
	"github.com/spec-kit/marketplace-service/internal/repository"
)

// NotificationPayload carries the data for a single-notification job.
type NotificationPayload struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// JobSet bundles the job bodies with their dependencies. Each method
// matches the Handler signature; RegisterAll binds them to the
// dispatcher.
type JobSet struct {
	requests  repository.RequestRepository
	users     repository.UserRepository
	mailer    notify.Mailer
	webhook   notify.WebhookSender
	reportDir string
	logger    *zap.Logger
}

// JobDependencies lists what the job bodies need.
type JobDependencies struct {
	RequestRepo repository.RequestRepository
	UserRepo    repository.UserRepository
	Mailer      notify.Mailer
	Webhook     notify.WebhookSender
	ReportDir   string
	Logger      *zap.Logger
}

// NewJobSet constructs the job set.
func NewJobSet(deps JobDependencies) *JobSet {
	return &JobSet{
		requests:  deps.RequestRepo,
		users:     deps.UserRepo,
		mailer:    deps.Mailer,
		webhook:   deps.Webhook,
		reportDir: deps.ReportDir,
		logger:    deps.Logger,
	}
}

// RegisterAll binds every job kind to the dispatcher.
func (j *JobSet) RegisterAll(d *Dispatcher) {
	d.Register(KindExportReport, j.ExportReport)
	d.Register(KindMonthlyReport, j.MonthlyReport)
	d.Register(KindSingleNotification, j.SingleNotification)
	d.Register(KindPendingReminder, j.PendingReminder)
}

var reportColumns = []string{
	"Sr No", "Request ID", "Service ID", "Customer ID", "Professional ID",
	"Address", "Requested At", "Completed At", "Status", "Remarks", "Contact Number",
}

// ExportReport scans all service requests into a CSV artifact and
// returns its filename. Each run writes a fresh artifact, so re-runs
// after crash re-delivery are harmless.
func (j *JobSet) ExportReport(ctx context.Context, _ []byte) (string, error) {
	requests, err := j.requests.List(ctx, repository.RequestFilter{})
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(j.reportDir, 0o755); err != nil {
		return "", err
	}
	filename := fmt.Sprintf("service_requests_%s.csv", uuid.NewString())
	file, err := os.Create(filepath.Join(j.reportDir, filename))
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(reportColumns); err != nil {
		return "", err
	}
	for i, request := range requests {
		completed := ""
		if request.DateOfCompletion != nil {
			completed = request.DateOfCompletion.Format("2006-01-02 15:04:05")
		}
		row := []string{
			strconv.Itoa(i + 1),
			request.ID,
			request.ServiceID,
			request.CustomerID,
			request.ProfessionalID,
			request.Address,
			request.DateOfRequest.Format("2006-01-02 15:04:05"),
			completed,
			string(request.Status),
			request.Remarks,
			request.ContactNumber,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return filename, nil
}

// MonthlyReport emails every non-admin user a summary of their service
// requests. One user's failed email never aborts the rest.
func (j *JobSet) MonthlyReport(ctx context.Context, _ []byte) (string, error) {
	users, err := j.users.ListAll(ctx)
	if err != nil {
		return "", err
	}

	sent := 0
	for _, user := range users {
		if user.HasRole(domain.RoleAdmin) {
			continue
		}
		if err := j.sendUserReport(ctx, &user); err != nil {
			j.logger.Warn("monthly report email failed",
				zap.String("user_id", user.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return fmt.Sprintf("monthly reports sent: %d", sent), nil
}

func (j *JobSet) sendUserReport(ctx context.Context, user *domain.User) error {
	filter := repository.RequestFilter{}
	if user.HasRole(domain.RoleCustomer) {
		filter.CustomerID = &user.ID
	} else if user.HasRole(domain.RoleProfessional) {
		filter.ProfessionalID = &user.ID
	}

	requests, err := j.requests.List(ctx, filter)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Hi %s,\n\nYour service requests this month:\n\n", user.Name)
	for _, request := range requests {
		completed := "-"
		if request.DateOfCompletion != nil {
			completed = request.DateOfCompletion.Format("2006-01-02")
		}
		body += fmt.Sprintf("- request %s: service %s, status %s, requested %s, completed %s\n",
			request.ID, request.ServiceID, request.Status,
			request.DateOfRequest.Format("2006-01-02"), completed)
	}
	if len(requests) == 0 {
		body += "No service requests this month.\n"
	}

	return j.mailer.Send(ctx, user.Email, "Monthly Service Requests Report", body)
}

// SingleNotification posts one status message to the messaging webhook.
func (j *JobSet) SingleNotification(ctx context.Context, payload []byte) (string, error) {
	var p NotificationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("invalid notification payload: %w", err)
	}

	text := fmt.Sprintf("Hi %s, your service request has been %s.", p.Name, p.Status)
	if err := j.webhook.Post(ctx, text); err != nil {
		j.logger.Warn("notification webhook failed", zap.Error(err))
		return "", err
	}
	return "notification sent", nil
}

// PendingReminder nudges every professional with open requested items,
// carrying the pending count.
func (j *JobSet) PendingReminder(ctx context.Context, _ []byte) (string, error) {
	professionals, err := j.users.ListByRole(ctx, domain.RoleProfessional)
	if err != nil {
		return "", err
	}

	status := domain.RequestStatusRequested
	reminded := 0
	for _, professional := range professionals {
		requests, err := j.requests.List(ctx, repository.RequestFilter{
			ProfessionalID: &professional.ID,
			Status:         &status,
		})
		if err != nil {
			return "", err
		}
		if len(requests) == 0 {
			continue
		}

		text := fmt.Sprintf("Hi %s, you have %d service requests pending. Please visit the website to take action.",
			professional.Name, len(requests))
		if err := j.webhook.Post(ctx, text); err != nil {
			j.logger.Warn("reminder webhook failed",
				zap.String("user_id", professional.ID), zap.Error(err))
			continue
		}
		reminded++
	}
	return fmt.Sprintf("reminders sent: %d", reminded), nil
}
