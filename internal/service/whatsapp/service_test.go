package whatsapp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarie/joias/internal/config"
	"github.com/solarie/joias/internal/domain/models"
	client "github.com/solarie/joias/pkg/clients/whatsapp"
)

type recordingClient struct {
	sent []client.SendTextMessageRequest
	err  error
}

func (c *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.sent = append(c.sent, req)
	return &client.SendTextMessageResponse{}, nil
}

func TestMetaWhatsAppService_SendOutbound(t *testing.T) {
	ctx := context.Background()
	cfg := config.WhatsAppConfig{ReportRecipient: "5511000000000"}

	t.Run("defaults to the report recipient", func(t *testing.T) {
		rec := &recordingClient{}
		svc := NewMetaWhatsAppService(cfg, rec, nil)

		require.NoError(t, svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "Resumo"}))
		require.Len(t, rec.sent, 1)
		assert.Equal(t, "5511000000000", rec.sent[0].To)
	})

	t.Run("rejects empty messages", func(t *testing.T) {
		svc := NewMetaWhatsAppService(cfg, &recordingClient{}, nil)
		assert.Error(t, svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "  "}))
	})

	t.Run("rejects a missing recipient", func(t *testing.T) {
		svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, &recordingClient{}, nil)
		assert.Error(t, svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "oi"}))
	})

	t.Run("propagates client errors", func(t *testing.T) {
		svc := NewMetaWhatsAppService(cfg, &recordingClient{err: errors.New("down")}, nil)
		assert.Error(t, svc.SendOutbound(ctx, models.OutboundMessageRequest{Message: "oi"}))
	})
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("linha um\nlinha dois\nlinha três\n", 20)
	assert.Equal(t, []string{"linha um\nlinha dois\n", "linha três\n"}, parts)

	long := strings.Repeat("ç", 15)
	for _, part := range splitMessage(long, 8) {
		assert.LessOrEqual(t, len(part), 8)
		assert.True(t, strings.HasPrefix(part, "ç"))
	}
	assert.Equal(t, long, strings.Join(splitMessage(long, 8), ""))
}
