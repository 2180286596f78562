package webhookd

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/salonflow/platform/internal/events"
	"github.com/salonflow/platform/pkg/kafka"
)

// maxBodyBytes caps inbound webhook payloads.
const maxBodyBytes = 1 << 16

// Receiver accepts provider webhooks and forwards them onto the webhook Kafka
// topic for asynchronous processing. It does no inline state changes; the
// consumers own verification against stored state.
type Receiver struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewReceiver creates a webhook Receiver.
func NewReceiver(producer *kafka.Producer, logger *zap.Logger) *Receiver {
	return &Receiver{producer: producer, logger: logger}
}

// RegisterRoutes registers one catch endpoint per provider.
func (r *Receiver) RegisterRoutes(router *gin.Engine) {
	wh := router.Group("/webhook")
	{
		wh.POST("/stripe", r.catch("stripe"))
		wh.POST("/vnpay", r.catch("vnpay"))
		wh.GET("/vnpay", r.catch("vnpay"))
		wh.POST("/twilio", r.catch("twilio"))
		wh.POST("/google-calendar", r.catch("google-calendar"))
	}
}

func (r *Receiver) catch(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read body"})
			return
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k := range c.Request.Header {
			headers[k] = c.GetHeader(k)
		}
		query := make(map[string]string)
		for k, vs := range c.Request.URL.Query() {
			if len(vs) > 0 {
				query[k] = vs[0]
			}
		}

		envelope := events.WebhookEnvelope{
			Provider:   provider,
			Headers:    headers,
			Query:      query,
			Body:       body,
			ReceivedAt: time.Now().UTC(),
		}
		cloudEvent, err := kafka.NewCloudEvent("salon-webhookd", events.WebhookReceived, envelope)
		if err != nil {
			r.logger.Error("failed to build webhook cloud event",
				zap.String("provider", provider),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		if err := r.producer.PublishEvent(c.Request.Context(), events.TopicWebhookEvents, cloudEvent); err != nil {
			r.logger.Error("failed to forward webhook",
				zap.String("provider", provider),
				zap.Error(err),
			)
			// A non-2xx makes the provider retry later.
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "try again"})
			return
		}

		r.logger.Info("webhook forwarded",
			zap.String("provider", provider),
			zap.Int("bytes", len(body)),
		)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}
