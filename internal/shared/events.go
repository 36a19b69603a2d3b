package shared

import (
  "bytes"
  "encoding/json"
  "fmt"
  "time"
)

// EventType tags the stream-event union.
type EventType string

const (
  EventTaskCreated   EventType = "task_created"
  EventTaskStarted   EventType = "task_started"
  EventStepCompleted EventType = "step_completed"
  EventTaskCompleted EventType = "task_completed"
  EventTaskFailed    EventType = "task_failed"
)

func (e EventType) Valid() bool {
  switch e {
  case EventTaskCreated, EventTaskStarted, EventStepCompleted, EventTaskCompleted, EventTaskFailed:
    return true
  }
  return false
}

// BaseEvent carries the fields common to every variant.
type BaseEvent struct {
  EventType EventType `json:"event_type"`
  TaskID    string    `json:"task_id"`
  Timestamp time.Time `json:"timestamp"`
}

func (b BaseEvent) Base() BaseEvent { return b }
func (b BaseEvent) Type() EventType { return b.EventType }

// StreamEvent is the tagged union of the five task lifecycle events. Each
// variant is a strict superset of BaseEvent; DecodeStreamEvent rejects
// payload fields that do not belong to the tagged variant.
type StreamEvent interface {
  Base() BaseEvent
  Type() EventType
}

type TaskCreatedEvent struct {
  BaseEvent
  Query string `json:"query"`
}

type TaskStartedEvent struct {
  BaseEvent
}

type StepCompletedEvent struct {
  BaseEvent
  Step ReasoningStep `json:"step"`
}

type TaskCompletedEvent struct {
  BaseEvent
  Result ResearchResult `json:"result"`
}

type TaskFailedEvent struct {
  BaseEvent
  Error        string         `json:"error"`
  ErrorDetails map[string]any `json:"error_details,omitempty"`
}

func newBase(eventType EventType, taskID string) BaseEvent {
  return BaseEvent{EventType: eventType, TaskID: taskID, Timestamp: time.Now().UTC()}
}

func NewTaskCreatedEvent(taskID, query string) *TaskCreatedEvent {
  return &TaskCreatedEvent{BaseEvent: newBase(EventTaskCreated, taskID), Query: query}
}

func NewTaskStartedEvent(taskID string) *TaskStartedEvent {
  return &TaskStartedEvent{BaseEvent: newBase(EventTaskStarted, taskID)}
}

func NewStepCompletedEvent(taskID string, step ReasoningStep) *StepCompletedEvent {
  return &StepCompletedEvent{BaseEvent: newBase(EventStepCompleted, taskID), Step: step}
}

func NewTaskCompletedEvent(taskID string, result ResearchResult) *TaskCompletedEvent {
  return &TaskCompletedEvent{BaseEvent: newBase(EventTaskCompleted, taskID), Result: result}
}

func NewTaskFailedEvent(taskID, errorMessage string, details map[string]any) *TaskFailedEvent {
  return &TaskFailedEvent{BaseEvent: newBase(EventTaskFailed, taskID), Error: errorMessage, ErrorDetails: details}
}

// EncodeStreamEvent serializes any variant with its type tag.
func EncodeStreamEvent(ev StreamEvent) ([]byte, error) {
  if ev == nil {
    return nil, fmt.Errorf("nil stream event")
  }
  if !ev.Type().Valid() {
    return nil, fmt.Errorf("invalid event type %q", ev.Type())
  }
  return json.Marshal(ev)
}

// DecodeStreamEvent picks the variant from the event_type tag. Unknown tags
// and fields from another variant are both rejected.
func DecodeStreamEvent(raw []byte) (StreamEvent, error) {
  var head struct {
    EventType EventType `json:"event_type"`
  }
  if err := json.Unmarshal(raw, &head); err != nil {
    return nil, fmt.Errorf("decode stream event: %w", err)
  }

  var ev StreamEvent
  switch head.EventType {
  case EventTaskCreated:
    ev = &TaskCreatedEvent{}
  case EventTaskStarted:
    ev = &TaskStartedEvent{}
  case EventStepCompleted:
    ev = &StepCompletedEvent{}
  case EventTaskCompleted:
    ev = &TaskCompletedEvent{}
  case EventTaskFailed:
    ev = &TaskFailedEvent{}
  default:
    return nil, fmt.Errorf("unknown event type %q", head.EventType)
  }

  dec := json.NewDecoder(bytes.NewReader(raw))
  dec.DisallowUnknownFields()
  if err := dec.Decode(ev); err != nil {
    return nil, fmt.Errorf("decode %s event: %w", head.EventType, err)
  }
  return ev, nil
}

// ChunkFromEvent flattens an event into the SSE wire frame.
func ChunkFromEvent(ev StreamEvent) (ResearchStreamChunk, error) {
  raw, err := EncodeStreamEvent(ev)
  if err != nil {
    return ResearchStreamChunk{}, err
  }
  var data map[string]any
  if err := json.Unmarshal(raw, &data); err != nil {
    return ResearchStreamChunk{}, err
  }
  return ResearchStreamChunk{Event: string(ev.Type()), Data: data}, nil
}
