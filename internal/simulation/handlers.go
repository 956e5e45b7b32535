package simulation

import (
	"encoding/json"

	"github.com/brianbtrfld/sram-ebike/internal/ride"
	"github.com/brianbtrfld/sram-ebike/internal/upload"

	"github.com/gofiber/fiber/v2"
)

const (
	TopicFrames = "frames"
	TopicEvents = "events"
)

// Broadcaster fans payloads out to live stream subscribers.
type Broadcaster interface {
	Broadcast(topic string, payload []byte)
}

type Uploader interface {
	Upload(r ride.Ride) (upload.Receipt, error)
}

type StartRequest struct {
	RideType string `json:"ride_type"`
}

type event struct {
	Event    string `json:"event"`
	RideType string `json:"ride_type,omitempty"`
}

func RegisterRoutes(r fiber.Router, svc *Service, hub Broadcaster, uploader Uploader) {
	r.Post("/start", func(c *fiber.Ctx) error {
		var req StartRequest
		if err := c.BodyParser(&req); err != nil || req.RideType == "" {
			return fiber.NewError(fiber.StatusBadRequest, "ride_type required")
		}
		msg, err := svc.Start(req.RideType)
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		publish(hub, TopicEvents, event{Event: "started", RideType: req.RideType})
		return c.JSON(fiber.Map{"message": msg})
	})

	r.Get("/telemetry", func(c *fiber.Ctx) error {
		frame, ok, err := svc.Poll()
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		publish(hub, TopicFrames, frame)
		return c.JSON(frame)
	})

	r.Post("/stop", func(c *fiber.Ctx) error {
		msg, err := svc.Stop()
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		publish(hub, TopicEvents, event{Event: "stopped"})
		return c.JSON(fiber.Map{"message": msg})
	})

	r.Get("/ride", func(c *fiber.Ctx) error {
		snapshot, ok, err := svc.PeekRide()
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active simulation")
		}
		return c.JSON(snapshot)
	})

	r.Get("/status", func(c *fiber.Ctx) error {
		st, err := svc.Status()
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		return c.JSON(st)
	})

	r.Get("/ride-types", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ride_types": svc.RideTypes()})
	})

	r.Post("/upload", func(c *fiber.Ctx) error {
		snapshot, ok, err := svc.PeekRide()
		if err != nil {
			return fiber.NewError(StatusCode(err), err.Error())
		}
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no active simulation")
		}
		receipt, err := uploader.Upload(snapshot)
		if err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(receipt)
	})
}

func publish(hub Broadcaster, topic string, v any) {
	if hub == nil {
		return
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	hub.Broadcast(topic, payload)
}
