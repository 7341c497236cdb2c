package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/logger"

	"go.uber.org/zap"
)

// CertificateIssuer is the external certificate collaborator contract.
type CertificateIssuer interface {
	RequestCertificate(ctx context.Context, req CertificateRequest) error
}

// CertificateService consumes issuance events emitted by the delivery
// service. It is intentionally decoupled from submission: issuance errors
// are logged and never roll back or invalidate an attempt.
type CertificateService struct {
	issuer   CertificateIssuer
	requests <-chan CertificateRequest
}

func NewCertificateService(issuer CertificateIssuer, requests <-chan CertificateRequest) *CertificateService {
	return &CertificateService{issuer: issuer, requests: requests}
}

// Run drains the event channel until it is closed.
func (s *CertificateService) Run() {
	for req := range s.requests {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.issuer.RequestCertificate(ctx, req); err != nil {
			logger.Log.Error("certificate issuance failed",
				zap.String("userId", req.UserID),
				zap.String("quizId", req.QuizID),
				zap.String("attemptId", req.AttemptID),
				zap.Error(err))
		} else {
			logger.Log.Info("certificate requested",
				zap.String("userId", req.UserID),
				zap.String("attemptId", req.AttemptID))
		}
		cancel()
	}
}

// HTTPCertificateIssuer posts issuance requests to the certificate
// collaborator's endpoint.
type HTTPCertificateIssuer struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPCertificateIssuer(endpoint string) *HTTPCertificateIssuer {
	return &HTTPCertificateIssuer{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (i *HTTPCertificateIssuer) RequestCertificate(ctx context.Context, req CertificateRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, i.Endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := i.Client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("certificate endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// NoopCertificateIssuer is used when no endpoint is configured; requests are
// logged only.
type NoopCertificateIssuer struct{}

func (NoopCertificateIssuer) RequestCertificate(ctx context.Context, req CertificateRequest) error {
	logger.Log.Info("certificate issuance skipped (no endpoint configured)",
		zap.String("attemptId", req.AttemptID))
	return nil
}
