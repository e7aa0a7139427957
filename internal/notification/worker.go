package notification

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"labequip-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Sink is the persistence the workers write to.
type Sink interface {
	AppendAudit(ctx context.Context, entry *model.AuditLog) error
	EquipmentByIDs(ctx context.Context, ids []int64) (map[int64]model.Equipment, error)
	SubscriptionsForUser(ctx context.Context, userID int64) ([]model.PushSubscription, error)
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// WorkerPool records audit entries and sends push notifications off the request path.
type WorkerPool struct {
	size    int
	jobs    chan Event
	sink    Sink
	webpush *webpush.Options
	sender  NotificationSender
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions disables push delivery.
func NewWorkerPool(size, queueSize int, sink Sink, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Event, queueSize),
		sink:    sink,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Close stops accepting events and waits until the queued ones are handled.
// Dispatch must not be called after Close.
func (wp *WorkerPool) Close() {
	close(wp.jobs)
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log.Printf("Worker %d started", id)
	for {
		select {
		case ev, ok := <-wp.jobs:
			if !ok {
				log.Printf("Worker %d drained", id)
				return
			}
			wp.handle(ctx, ev)
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// Dispatch queues an event. When the queue is full the event is dropped and logged.
func (wp *WorkerPool) Dispatch(ev Event) {
	select {
	case wp.jobs <- ev:
	default:
		log.Printf("Event queue full, dropping %s %s #%d", ev.Entity, ev.Action, ev.EntityID)
	}
}

func (wp *WorkerPool) handle(ctx context.Context, ev Event) {
	wp.recordAudit(ctx, ev)
	if ev.Entity == EntityBorrow && ev.Action == ActionOverdue {
		wp.notifyOverdue(ctx, ev)
	}
}

func (wp *WorkerPool) recordAudit(ctx context.Context, ev Event) {
	payload := ""
	if ev.Payload != nil {
		b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ev.Payload)
		if err != nil {
			log.Printf("Error encoding audit payload for %s #%d: %v", ev.Entity, ev.EntityID, err)
		} else {
			payload = string(b)
		}
	}

	entry := &model.AuditLog{
		ID:         uuid.NewString(),
		Entity:     ev.Entity,
		EntityID:   ev.EntityID,
		Action:     ev.Action,
		ActorID:    ev.ActorID,
		Payload:    payload,
		CreateTime: ev.At.UTC(),
	}
	if err := wp.sink.AppendAudit(ctx, entry); err != nil {
		log.Printf("Error writing audit entry: %v", err)
	}
}

// notifyOverdue tells the borrower on every registered endpoint that the record is overdue.
func (wp *WorkerPool) notifyOverdue(ctx context.Context, ev Event) {
	if wp.webpush == nil {
		return
	}
	subscriptions, err := wp.sink.SubscriptionsForUser(ctx, ev.OwnerID)
	if err != nil {
		log.Printf("Error fetching subscriptions for user %d: %v", ev.OwnerID, err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	label := fmt.Sprintf("#%d", ev.RefID)
	equipment, err := wp.sink.EquipmentByIDs(ctx, []int64{ev.RefID})
	if err != nil {
		log.Printf("Error fetching equipment %d: %v", ev.RefID, err)
	} else if eq, ok := equipment[ev.RefID]; ok && eq.Name != "" {
		label = eq.Name
	}

	log.Printf("Sending %d overdue notifications for borrow record %d", len(subscriptions), ev.EntityID)
	message := fmt.Sprintf("您借用的设备 %s 已逾期，请尽快归还！", label)
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, []byte(message))
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("Error sending notification to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Printf("Subscription for endpoint %s is expired. Deleting.", sub.Endpoint)
		if err := wp.sink.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); err != nil {
			log.Printf("Failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
