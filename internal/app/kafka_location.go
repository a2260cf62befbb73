package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/dig"

	"shiptrack-service/internal/apperr"
	"shiptrack-service/internal/config"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
	"shiptrack-service/internal/transport/kafka"
)

// makeLocationKafka routes broker pings into the lifecycle's guarded
// location write. Pings for shipments that already left transit are
// dropped, not redelivered: the guard rejecting them is permanent.
func makeLocationKafka(svc *lifecycle.Service, logger logx.Logger) kafka.HandleFunc {
	return func(ctx context.Context, ping kafka.LocationPing) error {
		point := domain.GeoPoint{Lat: ping.Lat, Lng: ping.Lng, Timestamp: ping.Timestamp}

		err := svc.UpdateLocation(ctx, ping.ShipmentID, ping.DriverEmail, point)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, apperr.ErrInvalidTransition),
			errors.Is(err, apperr.ErrNotFound),
			errors.Is(err, apperr.ErrInvalid):
			logger.Info("stale location ping dropped",
				logx.String("shipment_id", ping.ShipmentID),
				logx.String("driver_email", ping.DriverEmail),
			)
			return nil
		default:
			return err
		}
	}
}

func registerWorker(container *dig.Container) error {
	consumerProvider := func(cfg *config.Config, svc *lifecycle.Service, logger logx.Logger) (*kafka.Consumer, error) {
		h := makeLocationKafka(svc, logger)
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.Topic, h, logger)
		if err != nil {
			return nil, fmt.Errorf("kafka consumer: %w", err)
		}
		return consumer, nil
	}
	return provideAll(container, consumerProvider)
}
