package whatsapp

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
	client "github.com/solarie/joias/pkg/clients/whatsapp"
)

// maxBodyLength is the longest text body the Cloud API accepts.
const maxBodyLength = 4096

// MessagingService delivers outbound notifications.
type MessagingService interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg    config.WhatsAppConfig
	client client.Client
	logger *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, logger *zap.Logger) *MetaWhatsAppService {
	svc := &MetaWhatsAppService{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SendOutbound sends req.Message to req.To, or to the configured report
// recipient when To is empty. Long messages are split on line boundaries.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	to := req.To
	if to == "" {
		to = s.cfg.ReportRecipient
	}
	if to == "" {
		return errors.New("missing message recipient")
	}
	if strings.TrimSpace(req.Message) == "" {
		return errors.New("empty message body")
	}

	for _, part := range splitMessage(req.Message, maxBodyLength) {
		ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
		resp, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
			To:         to,
			Body:       part,
			PreviewURL: req.PreviewURL,
		})
		cancel()
		if err != nil {
			return err
		}
		s.logger.Info("outbound message sent", zap.String("to", to), zap.String("message_id", resp.MessageID()))
	}
	return nil
}

func splitMessage(message string, limit int) []string {
	if len(message) <= limit {
		return []string{message}
	}

	var parts []string
	var current strings.Builder
	for _, line := range strings.SplitAfter(message, "\n") {
		for len(line) > limit {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			cut := limit
			for cut > 0 && !utf8Start(line[cut]) {
				cut--
			}
			parts = append(parts, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line) > limit {
			parts = append(parts, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}
