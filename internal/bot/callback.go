package bot

import (
	"fmt"
	"strings"
)

// Callback data uses compact "ACTION|payload" tokens so every button
// fits Telegram's 64-byte callback data limit.
const (
	tokenMenuBook   = "BOOK"
	tokenMenuCancel = "CANCEL"
	tokenMenuInfo   = "INFO"
	tokenBookDate   = "BOOK_DATE"
	tokenBookTime   = "BOOK_TIME"
	tokenCancelPick = "CANCEL_PICK"
	tokenInfoPick   = "INFO_PICK"

	payloadYes      = "YES"
	payloadNo       = "NO"
	payloadInfoLast = "last"
	payloadInfoNext = "next"
)

type Action int

const (
	ActionMenuBook Action = iota
	ActionMenuCancel
	ActionMenuInfo
	ActionPickDate
	ActionPickTime
	ActionCancelPick
	ActionCancelYes
	ActionCancelNo
	ActionInfoLast
	ActionInfoNext
)

// Callback is a parsed button press. Only the fields relevant to the
// action are populated.
type Callback struct {
	Action        Action
	Date          string
	SlotID        string
	AppointmentID string
}

// ParseCallback decodes raw callback data at the update boundary, so
// handlers switch on a typed action instead of string prefixes.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, "|")
	switch parts[0] {
	case tokenMenuBook:
		return Callback{Action: ActionMenuBook}, nil
	case tokenMenuCancel:
		return Callback{Action: ActionMenuCancel}, nil
	case tokenMenuInfo:
		return Callback{Action: ActionMenuInfo}, nil
	case tokenBookDate:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, fmt.Errorf("malformed date callback %q", data)
		}
		return Callback{Action: ActionPickDate, Date: parts[1]}, nil
	case tokenBookTime:
		if len(parts) != 2 || parts[1] == "" {
			return Callback{}, fmt.Errorf("malformed time callback %q", data)
		}
		return Callback{Action: ActionPickTime, SlotID: parts[1]}, nil
	case tokenCancelPick:
		switch {
		case len(parts) == 2 && parts[1] != "":
			return Callback{Action: ActionCancelPick, AppointmentID: parts[1]}, nil
		case len(parts) == 3 && parts[1] == payloadYes && parts[2] != "":
			return Callback{Action: ActionCancelYes, AppointmentID: parts[2]}, nil
		case len(parts) == 3 && parts[1] == payloadNo && parts[2] != "":
			return Callback{Action: ActionCancelNo, AppointmentID: parts[2]}, nil
		}
		return Callback{}, fmt.Errorf("malformed cancel callback %q", data)
	case tokenInfoPick:
		if len(parts) != 2 {
			return Callback{}, fmt.Errorf("malformed info callback %q", data)
		}
		switch parts[1] {
		case payloadInfoLast:
			return Callback{Action: ActionInfoLast}, nil
		case payloadInfoNext:
			return Callback{Action: ActionInfoNext}, nil
		}
		return Callback{}, fmt.Errorf("malformed info callback %q", data)
	}
	return Callback{}, fmt.Errorf("unknown callback %q", data)
}

func dateCallback(date string) string   { return tokenBookDate + "|" + date }
func timeCallback(slotID string) string { return tokenBookTime + "|" + slotID }
func cancelPickCallback(id string) string {
	return tokenCancelPick + "|" + id
}
func cancelYesCallback(id string) string {
	return tokenCancelPick + "|" + payloadYes + "|" + id
}
func cancelNoCallback(id string) string {
	return tokenCancelPick + "|" + payloadNo + "|" + id
}
