package clinicauth

import (
	"context"

	"github.com/clinicore/clinicauth/session"
)

type contextKey int

const (
	deviceKey contextKey = iota
	networkKey
)

// WithDevice attaches device attributes to the context. Issue reads
// them when recording a new session.
func WithDevice(ctx context.Context, device session.Device) context.Context {
	return context.WithValue(ctx, deviceKey, device)
}

// DeviceFromContext retrieves device attributes set by WithDevice.
func DeviceFromContext(ctx context.Context) (session.Device, bool) {
	device, ok := ctx.Value(deviceKey).(session.Device)
	return device, ok
}

// WithNetwork attaches network attributes to the context. Issue reads
// them when recording a new session.
func WithNetwork(ctx context.Context, network session.Network) context.Context {
	return context.WithValue(ctx, networkKey, network)
}

// NetworkFromContext retrieves network attributes set by WithNetwork.
func NetworkFromContext(ctx context.Context) (session.Network, bool) {
	network, ok := ctx.Value(networkKey).(session.Network)
	return network, ok
}
