package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	"github.com/noah-isme/portal-cidadao-api/pkg/jobs"
)

const newDemandaSubject = "Nova demanda registrada no Portal Cidadão"

var newDemandaTemplate = template.Must(template.New("nova_demanda").Parse(`<div style="font-family: Arial, sans-serif;">
  <h2>{{.Subject}}</h2>
  <p><strong>Categoria:</strong> {{or .Categoria "-"}}<br/>
     <strong>Status:</strong> {{or .Status "-"}}<br/>
     <strong>Bairro:</strong> {{or .Bairro "-"}}<br/>
     <strong>Endereço:</strong> {{or .Endereco "-"}}
  </p>
  <p>{{.Descricao}}</p>
  {{if .FotoURL}}<p><img src="{{.FotoURL}}" alt="Foto" width="480"/></p>{{end}}
  <p><a href="{{.DashboardURL}}" target="_blank">Abrir painel administrativo</a></p>
</div>`))

// NotificationConfig configures administrator e-mails.
type NotificationConfig struct {
	Recipients []string
	APIKey     string
	APIURL     string
	From       string
	AppBaseURL string
}

type emailQueue interface {
	Enqueue(job jobs.Job[models.Demanda]) error
}

// NotificationService e-mails administrators about new demandas through the Resend API.
// It is a no-op without recipients or an API key.
type NotificationService struct {
	cfg     NotificationConfig
	client  *http.Client
	queue   emailQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs a NotificationService. Attach a queue with UseQueue
// to deliver asynchronously.
func NewNotificationService(cfg NotificationConfig, client *http.Client, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.resend.com/emails"
	}
	if cfg.From == "" {
		cfg.From = "Portal Cidadão <no-reply@localhost>"
	}
	if cfg.AppBaseURL == "" {
		cfg.AppBaseURL = "http://localhost:3000"
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{cfg: cfg, client: client, metrics: metrics, logger: logger}
}

// Enabled reports whether e-mails would be sent.
func (s *NotificationService) Enabled() bool {
	return len(s.cfg.Recipients) > 0 && s.cfg.APIKey != ""
}

// UseQueue routes NotifyNewDemanda through q.
func (s *NotificationService) UseQueue(q emailQueue) {
	s.queue = q
}

// NotifyNewDemanda schedules the new-demanda e-mail. Failures never reach the submitter.
func (s *NotificationService) NotifyNewDemanda(d models.Demanda) {
	if !s.Enabled() {
		s.metrics.RecordNotification("skipped")
		return
	}
	if s.queue == nil {
		go func() {
			if err := s.Deliver(context.Background(), jobs.Job[models.Demanda]{ID: d.ID, Payload: d}); err != nil {
				s.logger.Warn("admin notification failed", zap.String("demanda_id", d.ID), zap.Error(err))
			}
		}()
		return
	}
	if err := s.queue.Enqueue(jobs.Job[models.Demanda]{ID: d.ID, Kind: "nova_demanda", Payload: d}); err != nil {
		s.logger.Warn("admin notification not queued", zap.String("demanda_id", d.ID), zap.Error(err))
		s.metrics.RecordNotification("dropped")
	}
}

// Deliver sends one notification e-mail. It is the queue handler.
func (s *NotificationService) Deliver(ctx context.Context, job jobs.Job[models.Demanda]) error {
	if !s.Enabled() {
		return nil
	}
	html, err := renderNewDemanda(job.Payload, s.cfg.AppBaseURL)
	if err != nil {
		return err
	}

	body, err := json.Marshal(map[string]interface{}{
		"from":    s.cfg.From,
		"to":      s.cfg.Recipients,
		"subject": newDemandaSubject,
		"html":    html,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.RecordNotification("error")
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		s.metrics.RecordNotification("error")
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, text)
	}
	s.metrics.RecordNotification("sent")
	s.logger.Info("admin notification sent", zap.String("demanda_id", job.Payload.ID), zap.Int("recipients", len(s.cfg.Recipients)))
	return nil
}

func renderNewDemanda(d models.Demanda, appBaseURL string) (string, error) {
	var buf bytes.Buffer
	err := newDemandaTemplate.Execute(&buf, map[string]interface{}{
		"Subject":      newDemandaSubject,
		"Categoria":    d.Categoria,
		"Status":       string(d.Status),
		"Bairro":       deref(d.Bairro),
		"Endereco":     deref(d.Endereco),
		"Descricao":    deref(d.Descricao),
		"FotoURL":      deref(d.FotoURL),
		"DashboardURL": appBaseURL + "/dashboard",
	})
	if err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
