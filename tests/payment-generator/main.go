package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publishes synthetic payment verdicts to the payments topic so the consumer
// path (including validation failures routed to the DLQ) can be exercised
// locally without a real payment provider.

type paymentEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

var statuses = []string{"paid", "paid", "paid", "failed", "refunded"}

func main() {
	brokers := flag.String("brokers", "localhost:9092", "comma-separated kafka brokers")
	topic := flag.String("topic", "payments", "payments topic")
	orderIDs := flag.String("orders", "", "comma-separated order ids to report on")
	interval := flag.Duration("interval", 500*time.Millisecond, "delay between events")
	flag.Parse()

	ids := strings.Split(*orderIDs, ",")
	if *orderIDs == "" {
		log.Fatal("usage: payment-generator -orders id1,id2,... [-brokers ...] [-topic payments]")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.LeastBytes{},
	}
	defer writer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(*interval):
		}

		event := paymentEvent{
			OrderID: ids[rand.Intn(len(ids))],
			Status:  statuses[rand.Intn(len(statuses))],
		}
		// One in ten events is malformed and should land in the DLQ.
		if rand.Intn(10) == 0 {
			event.Status = "definitely-not-a-status"
		}

		value, err := json.Marshal(event)
		if err != nil {
			log.Fatal(err)
		}

		err = writer.WriteMessages(ctx, kafka.Message{
			Key:   []byte(event.OrderID),
			Value: value,
		})
		if err != nil {
			log.Println("failed to write message:", err)
			continue
		}
		log.Println("published", event.Status, "for", event.OrderID)
	}
}
