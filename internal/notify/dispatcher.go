// Package notify relays committed ledger events to connected displays,
// Prometheus and web push subscribers. Delivery failures are logged and
// never reach the caller.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreboard/internal/metrics"
	"github.com/dukerupert/choreboard/internal/model"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	"github.com/dukerupert/choreboard/internal/websocket"
)

const pushTimeout = 15 * time.Second

// Broadcaster is satisfied by *websocket.Hub.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

type Dispatcher struct {
	hub     Broadcaster
	metrics *metrics.Metrics
	sender  *PushSender
	subs    *store.PushStore
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher wires the sinks. Any of hub, m and sender may be nil.
func NewDispatcher(hub Broadcaster, m *metrics.Metrics, sender *PushSender, subs *store.PushStore, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:     hub,
		metrics: m,
		sender:  sender,
		subs:    subs,
		logger:  logger.With("component", "notify"),
	}
}

func (d *Dispatcher) Notify(ctx context.Context, e points.Event) {
	if d.hub != nil {
		id := e.RequestID
		if id == 0 {
			id = e.TaskID
		}
		d.hub.Broadcast(websocket.NewMessage("points", string(e.Kind), id, e.MemberID, e))
	}
	if d.metrics != nil {
		d.metrics.ObserveEvent(string(e.Kind), e.Amount)
	}

	payload, ok := Describe(e)
	if !ok || d.sender == nil || d.subs == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
		defer cancel()
		d.push(ctx, e, payload)
	}()
}

// Wait blocks until in-flight push deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) push(ctx context.Context, e points.Event, payload Payload) {
	subs, err := d.subs.List(ctx)
	if err != nil {
		d.logger.Error("list push subscriptions", "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		if !wantsEvent(sub, e) {
			continue
		}
		err := d.sender.Send(ctx, sub, payload)
		switch {
		case err == nil:
			d.observePush("sent")
		case errors.Is(err, ErrExpired):
			d.observePush("expired")
			if err := d.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				d.logger.Error("delete expired subscription", "subscription_id", sub.ID, "error", err)
			}
		default:
			d.observePush("failed")
			d.logger.Warn("push delivery failed", "subscription_id", sub.ID, "kind", string(e.Kind), "error", err)
		}
	}
}

func (d *Dispatcher) observePush(result string) {
	if d.metrics != nil {
		d.metrics.PushResult(result)
	}
}

// wantsEvent: devices bound to a member hear about that member only;
// unbound devices (parents' phones) hear about everyone.
func wantsEvent(sub *model.PushSubscription, e points.Event) bool {
	return sub.MemberID == nil || *sub.MemberID == e.MemberID
}

// Describe renders the push text for an event. Task toggles and manual
// adjustments are shown live on displays but not pushed.
func Describe(e points.Event) (Payload, bool) {
	switch e.Kind {
	case points.EventRewardSettled:
		return Payload{
			Title: "Reward redeemed",
			Body:  fmt.Sprintf("%s redeemed %s for %d points. Balance: %d", e.MemberName, e.RewardTitle, -e.Amount, e.Balance),
			URL:   "/rewards",
			Tag:   fmt.Sprintf("reward-%d", e.MemberID),
		}, true
	case points.EventRequestPending:
		return Payload{
			Title: "Approval needed",
			Body:  fmt.Sprintf("%s wants %s (%d points)", e.MemberName, e.RewardTitle, -e.Amount),
			URL:   "/requests",
			Tag:   fmt.Sprintf("request-%d", e.RequestID),
		}, true
	case points.EventRequestApproved:
		return Payload{
			Title: "Request approved",
			Body:  fmt.Sprintf("%s's request for %s was approved", e.MemberName, e.RewardTitle),
			URL:   "/requests",
			Tag:   fmt.Sprintf("request-%d", e.RequestID),
		}, true
	case points.EventRequestDenied:
		return Payload{
			Title: "Request denied",
			Body:  fmt.Sprintf("%s's request for %s was denied, %d points refunded. Balance: %d", e.MemberName, e.RewardTitle, e.Amount, e.Balance),
			URL:   "/requests",
			Tag:   fmt.Sprintf("request-%d", e.RequestID),
		}, true
	case points.EventPunished:
		return Payload{
			Title: "Points deducted",
			Body:  fmt.Sprintf("%s lost %d points. Balance: %d", e.MemberName, -e.Amount, e.Balance),
			Tag:   fmt.Sprintf("punish-%d", e.MemberID),
		}, true
	}
	return Payload{}, false
}
