package session

// Risk evaluation flags a new session against the user's prior ones.
// The flags are advisory: the engine records them on the session and
// surfaces them to callers, but never blocks a login on this signal
// alone. Policy belongs to the caller.

const (
	// ReasonNewDevice marks a device descriptor never seen across the
	// user's live sessions.
	ReasonNewDevice = "new device"
	// ReasonNewLocation marks a coarse location differing from every
	// live session of the user.
	ReasonNewLocation = "new location"
)

// EvaluateRisk compares an incoming device/network descriptor against
// the user's prior sessions. The first session a user ever creates is
// never flagged relative to itself. An unseen device wins over an
// unseen location when both apply.
func EvaluateRisk(prior []*Session, device Device, network Network) (bool, string) {
	if len(prior) == 0 {
		return false, ""
	}

	fp := device.Fingerprint()
	deviceSeen := false
	locationSeen := network.Location == ""

	for _, p := range prior {
		if p.Device.Fingerprint() == fp {
			deviceSeen = true
		}
		if !locationSeen && p.Network.Location == network.Location {
			locationSeen = true
		}
	}

	if !deviceSeen {
		return true, ReasonNewDevice
	}
	if !locationSeen {
		return true, ReasonNewLocation
	}
	return false, ""
}
