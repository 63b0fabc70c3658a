// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EventQueueSize is the buffer of each subscription channel
const EventQueueSize = 64

type EventType string

type EventSubscriberId int

type EventHandlerFunc func(Event)

type Event struct {
	Timestamp time.Time
	Data      any
	Type      EventType
}

func NewEvent(eventType EventType, eventData any) Event {
	return Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      eventData,
	}
}

// EventBus fans governance events out to in-process subscribers. Delivery is
// lossless: Publish waits for a subscriber whose buffer is full until it
// reads or unsubscribes
type EventBus struct {
	mu        sync.RWMutex
	subs      map[EventType]map[EventSubscriberId]*subscription
	lastSubId EventSubscriberId
	metrics   *eventMetrics
	Logger    *slog.Logger
}

// NewEventBus creates a new EventBus
func NewEventBus(
	promRegistry prometheus.Registerer,
	logger *slog.Logger,
) *EventBus {
	e := &EventBus{
		subs:   make(map[EventType]map[EventSubscriberId]*subscription),
		Logger: logger,
	}
	if promRegistry != nil {
		e.initMetrics(promRegistry)
	}
	return e
}

func (e *EventBus) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

type subscription struct {
	mu        sync.RWMutex
	ch        chan Event
	done      chan struct{}
	closeOnce sync.Once
	closed    bool
}

func newSubscription() *subscription {
	return &subscription{
		ch:   make(chan Event, EventQueueSize),
		done: make(chan struct{}),
	}
}

// deliver waits until the subscriber has room for the event or the
// subscription is closed. It reports whether the buffer was full on arrival
func (s *subscription) deliver(evt Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.ch <- evt:
		return false
	default:
	}
	select {
	case s.ch <- evt:
	case <-s.done:
	}
	return true
}

// close releases blocked deliveries before closing the channel
func (s *subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		close(s.ch)
	})
}

// Subscribe returns a channel receiving every later event of the given type.
// The channel is closed by Unsubscribe or Stop
func (e *EventBus) Subscribe(
	eventType EventType,
) (EventSubscriberId, <-chan Event) {
	sub := newSubscription()
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSubId++
	subId := e.lastSubId
	typeSubs, ok := e.subs[eventType]
	if !ok {
		typeSubs = make(map[EventSubscriberId]*subscription)
		e.subs[eventType] = typeSubs
	}
	typeSubs[subId] = sub
	if e.metrics != nil {
		e.metrics.subscribers.WithLabelValues(string(eventType)).Inc()
	}
	return subId, sub.ch
}

// SubscribeFunc runs handlerFunc on its own goroutine for each event of the
// given type. A panicking handler is logged and keeps receiving events
func (e *EventBus) SubscribeFunc(
	eventType EventType,
	handlerFunc EventHandlerFunc,
) EventSubscriberId {
	subId, evtCh := e.Subscribe(eventType)
	go func() {
		for evt := range evtCh {
			e.runHandler(eventType, handlerFunc, evt)
		}
	}()
	return subId
}

func (e *EventBus) runHandler(
	eventType EventType,
	handlerFunc EventHandlerFunc,
	evt Event,
) {
	defer func() {
		if r := recover(); r != nil {
			e.logger().Error(
				"event handler panic",
				"type", eventType,
				"panic", fmt.Sprint(r),
				"component", "event",
			)
		}
	}()
	handlerFunc(evt)
}

// Unsubscribe removes a subscription and closes its channel. Unknown ids are
// ignored
func (e *EventBus) Unsubscribe(eventType EventType, subId EventSubscriberId) {
	e.mu.Lock()
	sub, ok := e.subs[eventType][subId]
	if ok {
		delete(e.subs[eventType], subId)
		if len(e.subs[eventType]) == 0 {
			delete(e.subs, eventType)
		}
		if e.metrics != nil {
			e.metrics.subscribers.WithLabelValues(string(eventType)).Dec()
		}
	}
	e.mu.Unlock()
	if ok {
		sub.close()
	}
}

// Publish delivers each event, in order, to the current subscribers of its
// type. It must not be called while holding a lock a subscriber needs
func (e *EventBus) Publish(events ...Event) {
	for _, evt := range events {
		e.mu.RLock()
		targets := make([]*subscription, 0, len(e.subs[evt.Type]))
		for _, sub := range e.subs[evt.Type] {
			targets = append(targets, sub)
		}
		e.mu.RUnlock()
		for _, sub := range targets {
			if sub.deliver(evt) && e.metrics != nil {
				e.metrics.waits.WithLabelValues(string(evt.Type)).Inc()
			}
		}
		if e.metrics != nil {
			e.metrics.published.WithLabelValues(string(evt.Type)).Inc()
		}
	}
}

// Stop closes every subscription, which ends all SubscribeFunc goroutines.
// The bus accepts new subscriptions afterwards
func (e *EventBus) Stop() {
	e.mu.Lock()
	old := e.subs
	e.subs = make(map[EventType]map[EventSubscriberId]*subscription)
	e.mu.Unlock()
	for _, typeSubs := range old {
		for _, sub := range typeSubs {
			sub.close()
		}
	}
	if e.metrics != nil {
		e.metrics.subscribers.Reset()
	}
}
