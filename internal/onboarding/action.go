package onboarding

import (
	"encoding/json"
	"fmt"

	"github.com/mmynk/fairshare/internal/models"
)

// Action is one onboarding mutation. The set of actions is closed: only the
// types in this file implement it.
type Action interface {
	// Type returns the wire name of the action.
	Type() string
	isAction()
}

// UpdateUser sets the user name and keeps shareholder #0 in sync with it.
type UpdateUser struct{ Name string }

// UpdateEmail sets the sign-in email.
type UpdateEmail struct{ Email string }

// UpdateCompany sets the company name.
type UpdateCompany struct{ Name string }

// UpdateShareTypes renames a share type when NewKey is set, otherwise sets
// its value.
type UpdateShareTypes struct {
	Key    string   `json:"key"`
	NewKey *string  `json:"newKey,omitempty"`
	Value  *float64 `json:"value,omitempty"`
}

// AddShareholder adds a shareholder with the next free ID and no grants.
type AddShareholder struct {
	Name  string       `json:"name"`
	Email string       `json:"email,omitempty"`
	Group models.Group `json:"group"`
}

// AddGrant adds a grant with the next free ID and attaches it to a
// shareholder already in the draft.
type AddGrant struct {
	ShareholderID int          `json:"shareholderID"`
	Grant         models.Grant `json:"grant"`
}

func (UpdateUser) Type() string       { return "updateUser" }
func (UpdateEmail) Type() string      { return "updateEmail" }
func (UpdateCompany) Type() string    { return "updateCompany" }
func (UpdateShareTypes) Type() string { return "updateShareTypes" }
func (AddShareholder) Type() string   { return "addShareholder" }
func (AddGrant) Type() string         { return "addGrant" }

func (UpdateUser) isAction()       {}
func (UpdateEmail) isAction()      {}
func (UpdateCompany) isAction()    {}
func (UpdateShareTypes) isAction() {}
func (AddShareholder) isAction()   {}
func (AddGrant) isAction()         {}

// Envelope is the wire form of an action: {"type": ..., "payload": ...}.
type Envelope struct {
	Action Action
}

type envelopeJSON struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// MarshalJSON encodes the action with its type tag.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Action == nil {
		return nil, fmt.Errorf("onboarding: empty action")
	}
	var payload any
	switch a := e.Action.(type) {
	case UpdateUser:
		payload = a.Name
	case UpdateEmail:
		payload = a.Email
	case UpdateCompany:
		payload = a.Name
	default:
		payload = a
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelopeJSON{Type: e.Action.Type(), Payload: raw})
}

// UnmarshalJSON decodes a tagged action. Unknown types are rejected.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var env envelopeJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	var (
		action Action
		err    error
	)
	switch env.Type {
	case "updateUser":
		var a UpdateUser
		err = json.Unmarshal(env.Payload, &a.Name)
		action = a
	case "updateEmail":
		var a UpdateEmail
		err = json.Unmarshal(env.Payload, &a.Email)
		action = a
	case "updateCompany":
		var a UpdateCompany
		err = json.Unmarshal(env.Payload, &a.Name)
		action = a
	case "updateShareTypes":
		var a UpdateShareTypes
		err = json.Unmarshal(env.Payload, &a)
		action = a
	case "addShareholder":
		var a AddShareholder
		err = json.Unmarshal(env.Payload, &a)
		action = a
	case "addGrant":
		var a AddGrant
		err = json.Unmarshal(env.Payload, &a)
		action = a
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, env.Type)
	}
	if err != nil {
		return fmt.Errorf("decode %s payload: %w", env.Type, err)
	}

	e.Action = action
	return nil
}

// Actions unwraps a list of envelopes.
func Actions(envs []Envelope) []Action {
	out := make([]Action, len(envs))
	for i, e := range envs {
		out[i] = e.Action
	}
	return out
}
