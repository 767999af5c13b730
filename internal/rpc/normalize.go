package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field aliases accepted from older clients, canonical name first. They are
// resolved once, here; nothing past the decoder sees an alias.
var (
	chatIDKeys     = []string{"chat_id", "chatId"}
	mediaTypeKeys  = []string{"media_type", "mediaType", "type", "kind"}
	storageRefKeys = []string{"storage_ref", "storageRef", "storage_key", "storageKey"}
	timerKeys      = []string{"timer_seconds", "timerSeconds", "timer", "duration"}
	viewOnceKeys   = []string{"view_once", "viewOnce", "isViewOnce", "once"}
	watermarkKeys  = []string{"watermark_enabled", "watermarkEnabled", "watermark"}
	screenshotKeys = []string{"allow_screenshots", "allowScreenshots", "can_screenshot"}
	recipientKeys  = []string{"recipients", "recipient_ids", "recipientIds"}
	originKeys     = []string{"origin", "source"}
	originRefKeys  = []string{"origin_ref", "originRef", "dare_id"}
)

func first(raw map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

func decodeString(raw map[string]json.RawMessage, keys []string, dst *string) error {
	v, ok := first(raw, keys)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("field %s: %w", keys[0], err)
	}
	return nil
}

// decodeInt accepts 10, 10.0 and "10".
func decodeInt(raw map[string]json.RawMessage, keys []string, dst *int) error {
	v, ok := first(raw, keys)
	if !ok {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("field %s: not a number", keys[0])
		}
		n = json.Number(strings.TrimSpace(s))
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil || f != float64(int(f)) {
		return fmt.Errorf("field %s: not an integer", keys[0])
	}
	*dst = int(f)
	return nil
}

// decodeBool accepts true, "true", 1 and "1".
func decodeBool(raw map[string]json.RawMessage, keys []string, dst *bool) error {
	v, ok := first(raw, keys)
	if !ok {
		return nil
	}
	if err := json.Unmarshal(v, dst); err == nil {
		return nil
	}
	s := strings.Trim(strings.TrimSpace(string(v)), `"`)
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("field %s: not a boolean", keys[0])
	}
	*dst = b
	return nil
}

// UnmarshalJSON decodes a CreateMedia request, folding legacy field names
// into the canonical ones.
func (r *CreateMediaRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out CreateMediaRequest
	for _, step := range []error{
		decodeString(raw, chatIDKeys, &out.ChatID),
		decodeString(raw, mediaTypeKeys, &out.MediaType),
		decodeString(raw, storageRefKeys, &out.StorageRef),
		decodeInt(raw, timerKeys, &out.TimerSeconds),
		decodeBool(raw, viewOnceKeys, &out.ViewOnce),
		decodeBool(raw, watermarkKeys, &out.WatermarkEnabled),
		decodeBool(raw, screenshotKeys, &out.AllowScreenshots),
		decodeString(raw, originKeys, &out.Origin),
		decodeString(raw, originRefKeys, &out.OriginRef),
	} {
		if step != nil {
			return step
		}
	}
	if v, ok := first(raw, recipientKeys); ok {
		if err := json.Unmarshal(v, &out.Recipients); err != nil {
			return fmt.Errorf("field recipients: %w", err)
		}
	}

	out.MediaType = strings.ToLower(strings.TrimSpace(out.MediaType))
	if out.MediaType == "photo" {
		out.MediaType = "image"
	}
	*r = out
	return nil
}
