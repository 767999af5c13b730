package rpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMediaRequest_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CreateMediaRequest
	}{
		{
			name: "canonical",
			in: `{"chat_id":"c1","media_type":"video","storage_ref":"k","timer_seconds":10,
				"view_once":true,"watermark_enabled":true,"allow_screenshots":false,"recipients":["u2"]}`,
			want: CreateMediaRequest{ChatID: "c1", MediaType: "video", StorageRef: "k", TimerSeconds: 10,
				ViewOnce: true, WatermarkEnabled: true, Recipients: []string{"u2"}},
		},
		{
			name: "legacy aliases",
			in:   `{"chatId":"c1","kind":"Photo","storageKey":"k","duration":"5","isViewOnce":"true","watermark":1,"recipientIds":["u2","u3"]}`,
			want: CreateMediaRequest{ChatID: "c1", MediaType: "image", StorageRef: "k", TimerSeconds: 5,
				ViewOnce: true, WatermarkEnabled: true, Recipients: []string{"u2", "u3"}},
		},
		{
			name: "canonical wins over alias",
			in:   `{"timer_seconds":3,"timer":9,"view_once":false,"once":true}`,
			want: CreateMediaRequest{TimerSeconds: 3},
		},
		{
			name: "null falls through to alias",
			in:   `{"timer_seconds":null,"timerSeconds":7}`,
			want: CreateMediaRequest{TimerSeconds: 7},
		},
		{
			name: "float timer",
			in:   `{"timer":15.0,"type":"image"}`,
			want: CreateMediaRequest{TimerSeconds: 15, MediaType: "image"},
		},
		{
			name: "dare origin",
			in:   `{"source":"dare","dare_id":"d-1"}`,
			want: CreateMediaRequest{Origin: "dare", OriginRef: "d-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got CreateMediaRequest
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreateMediaRequest_UnmarshalJSON_Errors(t *testing.T) {
	for _, in := range []string{
		`{"timer":"soon"}`,
		`{"timer_seconds":1.5}`,
		`{"view_once":"maybe"}`,
		`{"recipients":"u2"}`,
		`[1,2]`,
	} {
		var got CreateMediaRequest
		assert.Error(t, json.Unmarshal([]byte(in), &got), in)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := Codec{}
	assert.Equal(t, "json", c.Name())

	b, err := c.Marshal(&ReportMediaRequest{MediaID: "m1", Reason: "spam"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"media_id":"m1","reason":"spam"}`, string(b))

	var out ReportMediaRequest
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, "m1", out.MediaID)

	var empty PingRequest
	assert.NoError(t, c.Unmarshal(nil, &empty))
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/vanish.v1.ProtectedMedia/ClaimView", FullMethod(ClaimView))
	assert.True(t, PublicMethods[FullMethod(Ping)])
	assert.False(t, PublicMethods[FullMethod(CreateMedia)])
}
