package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	logrus "github.com/sirupsen/logrus"

	"royaltypool/internal/moneyflow"
	"royaltypool/internal/playevents"
	"royaltypool/internal/withdrawal"
	"royaltypool/pkg/config"
)

func main() {
	// Initialize logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	config.InitDB()

	flows := moneyflow.NewService(config.DB, withdrawal.LinkageValidator{})
	reactor := playevents.NewReactor(config.DB, flows)

	// Consume confirmed plays from the detection pipeline when RabbitMQ is
	// configured. Recording is idempotent on external_id, so redelivered
	// messages never charge a station twice.
	if os.Getenv("RABBITMQ_HOST") != "" {
		config.InitRabbitMQ()
		defer config.RabbitMQ.Close()

		msgConsumer, err := config.NewConsumer(config.PlaysConfirmedQueue)
		if err != nil {
			logrus.Fatal("Failed to create consumer: ", err)
		}
		defer msgConsumer.Close()

		go func() {
			err := msgConsumer.Consume(func(msg []byte) error {
				var input playevents.ConfirmedPlayInput
				if err := json.Unmarshal(msg, &input); err != nil {
					// Malformed messages are dropped, not requeued
					logrus.Errorf("Failed to unmarshal play message: %v", err)
					return nil
				}

				play, err := reactor.RecordConfirmedPlay(input)
				if err != nil {
					return err
				}

				logrus.WithFields(logrus.Fields{
					"play_log_id":    play.ID,
					"station_id":     play.StationID,
					"payment_status": play.PaymentStatus,
				}).Info("confirmed play recorded")
				return nil
			})
			if err != nil {
				logrus.Fatal("Consumer stopped: ", err)
			}
		}()
	} else {
		logrus.Info("RabbitMQ not configured, running retry scheduler only")
	}

	// Periodically retry station charges that failed on an unfunded account
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() {
		recovered, err := reactor.RetryFailedCharges()
		if err != nil {
			logrus.Errorf("Failed charge retry run failed: %v", err)
			return
		}
		if recovered > 0 {
			logrus.WithField("recovered", recovered).Info("failed charge retry run complete")
		}
	}); err != nil {
		logrus.Fatal("Failed to schedule retry job: ", err)
	}
	c.Start()
	defer c.Stop()

	logrus.Info("Royalty worker started, waiting for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Royalty worker stopped")
}
