package event

import (
	"errors"
	"fmt"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
)

var (
	// ErrEventIDRequired indicates a missing event id.
	ErrEventIDRequired = errors.New("event id is required")
	// ErrMatchIDRequired indicates a missing match id.
	ErrMatchIDRequired = errors.New("event match id is required")
	// ErrSeqRequired indicates a missing or zero sequence number.
	ErrSeqRequired = errors.New("event seq must be greater than zero")
	// ErrUnknownType indicates an event type outside the defined kinds.
	ErrUnknownType = errors.New("event type is unknown")
)

// ValidateForAppend normalizes and validates an event before it is
// persisted: ids are trimmed, the type must be known, and the payload must
// decode with its required fields present.
func ValidateForAppend(evt Event) (Event, error) {
	evt.ID = trimmed(evt.ID)
	evt.MatchID = trimmed(evt.MatchID)
	if evt.ID == "" {
		return Event{}, ErrEventIDRequired
	}
	if evt.MatchID == "" {
		return Event{}, ErrMatchIDRequired
	}
	if evt.Seq == 0 {
		return Event{}, ErrSeqRequired
	}
	if !evt.Type.IsValid() {
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownType, string(evt.Type))
	}
	if err := validatePayload(evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}

func validatePayload(evt Event) error {
	switch evt.Type {
	case TypeMatchCreated:
		payload, err := DecodeMatchCreated(evt)
		if err != nil {
			return err
		}
		ruleset, _, _, server := payload.Domain()
		if err := ruleset.Validate(); err != nil {
			return err
		}
		if !server.IsValid() {
			return domain.ErrInvalidServer
		}
	case TypePointWon:
		payload, err := DecodePointWon(evt)
		if err != nil {
			return err
		}
		if !domain.Side(payload.Side).IsValid() {
			return fmt.Errorf("point.won side %q is invalid", payload.Side)
		}
	case TypePointUndone:
		payload, err := DecodePointUndone(evt)
		if err != nil {
			return err
		}
		if trimmed(payload.TargetEventID) == "" {
			return fmt.Errorf("point.undone target event id is required")
		}
	case TypePointRedone:
		payload, err := DecodePointRedone(evt)
		if err != nil {
			return err
		}
		if trimmed(payload.TargetEventID) == "" {
			return fmt.Errorf("point.redone target event id is required")
		}
	case TypeMatchEnded:
		if _, err := DecodeMatchEnded(evt); err != nil {
			return err
		}
	case TypePointAnnotated:
		payload, err := DecodePointAnnotated(evt)
		if err != nil {
			return err
		}
		if trimmed(payload.TargetEventID) == "" {
			return fmt.Errorf("point.annotated target event id is required")
		}
		if trimmed(payload.Reason) == "" {
			return fmt.Errorf("point.annotated reason is required")
		}
	}
	return nil
}
