package session

import (
	"encoding/hex"
	"errors"
	"strconv"
)

// Redis hash field names. The rotation and touch scripts address these
// fields by name, so they are part of the storage contract.
const (
	fieldUserID          = "user_id"
	fieldClinicID        = "clinic_id"
	fieldRole            = "role"
	fieldRefreshHash     = "refresh_hash"
	fieldPrevRefreshHash = "prev_refresh_hash"
	fieldDeviceType      = "device_type"
	fieldDeviceName      = "device_name"
	fieldDeviceBrowser   = "device_browser"
	fieldDeviceOS        = "device_os"
	fieldIP              = "ip"
	fieldLocation        = "location"
	fieldSuspicious      = "suspicious"
	fieldSuspicionReason = "suspicion_reason"
	fieldRequestCount    = "request_count"
	fieldRevoked         = "revoked"
	fieldCreatedAt       = "created_at"
	fieldIssuedAt        = "issued_at"
	fieldLastUsedAt      = "last_used_at"
	fieldExpiresAt       = "expires_at"
)

// ErrCorrupt is returned when a stored session hash cannot be decoded.
var ErrCorrupt = errors.New("session record corrupt")

func encodeFields(s *Session) map[string]interface{} {
	return map[string]interface{}{
		fieldUserID:          s.UserID,
		fieldClinicID:        s.ClinicID,
		fieldRole:            s.Role,
		fieldRefreshHash:     hex.EncodeToString(s.RefreshHash[:]),
		fieldPrevRefreshHash: hex.EncodeToString(s.PrevRefreshHash[:]),
		fieldDeviceType:      s.Device.Type,
		fieldDeviceName:      s.Device.Name,
		fieldDeviceBrowser:   s.Device.Browser,
		fieldDeviceOS:        s.Device.OS,
		fieldIP:              s.Network.IP,
		fieldLocation:        s.Network.Location,
		fieldSuspicious:      encodeBool(s.Suspicious),
		fieldSuspicionReason: s.SuspicionReason,
		fieldRequestCount:    strconv.FormatUint(s.RequestCount, 10),
		fieldRevoked:         encodeBool(s.Revoked),
		fieldCreatedAt:       strconv.FormatInt(s.CreatedAt, 10),
		fieldIssuedAt:        strconv.FormatInt(s.IssuedAt, 10),
		fieldLastUsedAt:      strconv.FormatInt(s.LastUsedAt, 10),
		fieldExpiresAt:       strconv.FormatInt(s.ExpiresAt, 10),
	}
}

func decodeFields(id string, fields map[string]string) (*Session, error) {
	if fields[fieldUserID] == "" {
		return nil, ErrCorrupt
	}

	s := &Session{
		ID:       id,
		UserID:   fields[fieldUserID],
		ClinicID: fields[fieldClinicID],
		Role:     fields[fieldRole],
		Device: Device{
			Type:    fields[fieldDeviceType],
			Name:    fields[fieldDeviceName],
			Browser: fields[fieldDeviceBrowser],
			OS:      fields[fieldDeviceOS],
		},
		Network: Network{
			IP:       fields[fieldIP],
			Location: fields[fieldLocation],
		},
		Suspicious:      fields[fieldSuspicious] == "1",
		SuspicionReason: fields[fieldSuspicionReason],
		Revoked:         fields[fieldRevoked] == "1",
	}

	var err error
	if s.RefreshHash, err = decodeHash(fields[fieldRefreshHash]); err != nil {
		return nil, err
	}
	if s.PrevRefreshHash, err = decodeHash(fields[fieldPrevRefreshHash]); err != nil {
		return nil, err
	}
	if s.RequestCount, err = strconv.ParseUint(zeroDefault(fields[fieldRequestCount]), 10, 64); err != nil {
		return nil, ErrCorrupt
	}
	if s.CreatedAt, err = strconv.ParseInt(zeroDefault(fields[fieldCreatedAt]), 10, 64); err != nil {
		return nil, ErrCorrupt
	}
	if s.IssuedAt, err = strconv.ParseInt(zeroDefault(fields[fieldIssuedAt]), 10, 64); err != nil {
		return nil, ErrCorrupt
	}
	if s.LastUsedAt, err = strconv.ParseInt(zeroDefault(fields[fieldLastUsedAt]), 10, 64); err != nil {
		return nil, ErrCorrupt
	}
	if s.ExpiresAt, err = strconv.ParseInt(zeroDefault(fields[fieldExpiresAt]), 10, 64); err != nil {
		return nil, ErrCorrupt
	}

	return s, nil
}

func decodeHash(value string) ([32]byte, error) {
	var out [32]byte
	if value == "" {
		return out, nil
	}

	raw, err := hex.DecodeString(value)
	if err != nil || len(raw) != len(out) {
		return out, ErrCorrupt
	}
	copy(out[:], raw)
	return out, nil
}

func encodeBool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}

func zeroDefault(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
