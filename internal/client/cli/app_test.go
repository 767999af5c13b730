package cli

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	app := &App{}
	var buf bytes.Buffer

	old := log.Default().Writer()
	defer log.SetOutput(old)
	log.SetOutput(&buf)

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.currentMode())
	assert.NotEmpty(t, buf.String(), "expected log output on mode change")

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String(), "no log output when mode doesn't change")

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.currentMode())
	assert.NotEmpty(t, buf.String())
}

func TestGetStatus(t *testing.T) {
	api := &fakeClient{}
	a, _, _ := newTestApp(t, api, "")

	assert.Equal(t, "(anonymous)", a.getStatus())

	api.SetAccessToken("tok")
	a.setMode(ModeOnline)
	assert.Equal(t, "(online)", a.getStatus())
}

func TestStartOnlineStatusWatcher(t *testing.T) {
	api := &fakeClient{pingErr: errors.New("unreachable")}
	a, _, _ := newTestApp(t, api, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		a.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return a.currentMode() == ModeOffline }, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
