package telemetry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageConstructorsValidate(t *testing.T) {
	for name, msg := range map[string]Message{
		"error":               NewError(CodeRelayFailure, "relay actuation failed"),
		"set_interrupt_state": NewSetInterruptState("open"),
		"interrupt_status":    NewInterruptStatus("closed"),
		"set_fan":             NewSetFan("on"),
		"new_temperature":     NewNewTemperature(21.4),
		"heartbeat":           NewHeartbeat(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, msg.Validate())
			require.Equal(t, name, msg.Kind())
		})
	}
}

func TestMessageValidationRejectsBadValues(t *testing.T) {
	for name, msg := range map[string]Message{
		"empty error message":      NewError(CodeLoopFailure, ""),
		"wrong error id":           Error{ID: "oops", Code: 1, Message: "x"},
		"opened is not open":       NewSetInterruptState("opened"),
		"empty interrupt command":  NewSetInterruptState(""),
		"close is not a status":    NewInterruptStatus("close"),
		"fan value must be on/off": NewSetFan("high"),
		"wrong temperature id":     NewTemperature{ID: "temp", Value: 20},
		"stale heartbeat":          Heartbeat{ID: KindHeartbeat, Value: "dead"},
	} {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, msg.Validate(), ErrInvalidMessage)
		})
	}
}

func TestSetInterruptStateAcceptsAllCommands(t *testing.T) {
	for _, value := range []string{"open", "close", "reset"} {
		require.NoError(t, NewSetInterruptState(value).Validate())
	}
}

func TestHeartbeatWireFormat(t *testing.T) {
	payload, err := json.Marshal(NewHeartbeat())
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"heartbeat","value":"alive"}`, string(payload))
}

func TestErrorWireFormat(t *testing.T) {
	payload, err := json.Marshal(NewError(CodeLoopFailure, "scan loop failed"))
	require.NoError(t, err)
	require.JSONEq(t, `{"id":"error","code":2,"message":"scan loop failed"}`, string(payload))
}
