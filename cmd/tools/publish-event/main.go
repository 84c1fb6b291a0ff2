// cmd/tools/publish-event/main.go replays a document-creation event onto the
// change-feed exchange, e.g. to re-send a notification by hand.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/messaging"
	"clinic-notify-workers/internal/models"
)

// required path params per event kind
var kinds = map[string]struct {
	routingKey string
	params     []string
}{
	"appointment": {messaging.RoutingAppointmentCreated, []string{"facilityId", "specializationId", "doctorId", "appointmentId"}},
	"patient":     {messaging.RoutingPatientCreated, []string{"patientId"}},
	"home-clinic": {messaging.RoutingHomeClinicRequestCreated, []string{"requestId"}},
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	kind, ok := kinds[os.Args[1]]
	if !ok {
		fmt.Printf("Error: unknown event kind %q\n", os.Args[1])
		help()
		os.Exit(1)
	}

	fs := flag.NewFlagSet(os.Args[1], flag.ExitOnError)
	url := fs.String("url", os.Getenv("RABBITMQ_URL"), "AMQP URL (defaults to $RABBITMQ_URL)")
	exchange := fs.String("exchange", "clinic.documents", "Change-feed exchange")
	document := fs.String("document", "{}", "Document snapshot as a JSON object")
	paramValues := make(map[string]*string, len(kind.params))
	for _, p := range kind.params {
		paramValues[p] = fs.String(p, "", p+" path parameter")
	}
	_ = fs.Parse(os.Args[2:])

	event := models.DocumentEvent{Params: map[string]string{}, Document: models.Document{}}
	var missing []string
	for _, p := range kind.params {
		if *paramValues[p] == "" {
			missing = append(missing, p)
		}
		event.Params[p] = *paramValues[p]
	}
	if len(missing) > 0 {
		fmt.Printf("Error: missing required flags: %s\n", strings.Join(missing, ", "))
		fs.Usage()
		os.Exit(1)
	}
	if err := json.Unmarshal([]byte(*document), &event.Document); err != nil {
		fmt.Printf("Error: -document is not a JSON object: %v\n", err)
		os.Exit(1)
	}
	if *url == "" {
		fmt.Println("Error: -url or RABBITMQ_URL is required")
		os.Exit(1)
	}

	publisher, err := messaging.NewPublisher(config.RabbitMQConfig{URL: *url, Exchange: *exchange})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := publisher.Publish(ctx, kind.routingKey, event); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Published %s event to %s\n", os.Args[1], kind.routingKey)
}

func help() {
	fmt.Println("Usage: publish-event <appointment|patient|home-clinic> [flags]")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println(`  publish-event appointment -facilityId f1 -specializationId s1 -doctorId d1 -appointmentId a1 -document '{"patientName":"Sara","date":"2025-03-10","time":"14:30"}'`)
	fmt.Println(`  publish-event patient -patientId p1 -document '{"name":"Lina","phone":"0501234567"}'`)
	fmt.Println(`  publish-event home-clinic -requestId r1 -document '{"patientName":"Huda","serviceType":"nursing"}'`)
}
