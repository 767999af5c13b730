package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vanish/internal/client/flow"
	"github.com/dmitrijs2005/vanish/internal/client/viewer"
	"github.com/dmitrijs2005/vanish/internal/filex"
	"github.com/dmitrijs2005/vanish/internal/netx"
	"github.com/dmitrijs2005/vanish/internal/rpc"
)

// uploadWait bounds how long create waits for an upload to hand over its key.
var uploadWait = 200 * time.Millisecond

// readMedia and putBlob are test seams.
var (
	readMedia = filex.ReadMedia
	putBlob   = netx.UploadToPresignedURL
)

func (a *App) Login(ctx context.Context, args []string) error {
	th, ok := a.api.(tokenHolder)
	if !ok {
		return errors.New("client does not accept tokens")
	}

	token := ""
	if len(args) > 0 {
		token = args[0]
	} else {
		var err error
		if token, err = GetSecret("Access token (from `server token <user-id>`)", a.out); err != nil {
			return err
		}
	}
	if token == "" {
		return usageError{"login [token]"}
	}
	th.SetAccessToken(token)

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := a.api.Ping(pctx); err != nil {
		a.setMode(ModeOffline)
		fmt.Fprintln(a.out, "Token saved; server unreachable.")
		return nil
	}
	a.setMode(ModeOnline)
	fmt.Fprintln(a.out, "Token saved.")
	return nil
}

// Upload sends a local file to the blob store and hands its storage key to
// the next create.
func (a *App) Upload(ctx context.Context, args []string) error {
	path, err := oneArg(args, "upload <file>")
	if err != nil {
		return err
	}

	m, err := readMedia(path)
	if err != nil {
		return err
	}

	key, url, err := a.api.GetUploadURL(ctx)
	if err != nil {
		return err
	}
	if err := putBlob(ctx, url, m.ContentType, m.Data); err != nil {
		return err
	}

	a.mu.Lock()
	if !a.uploads.Resolve(upload{Key: key, Kind: m.Kind}) {
		// an earlier upload was never used; the newest one wins
		a.uploads = flow.NewFuture[upload]()
		a.uploads.Resolve(upload{Key: key, Kind: m.Kind})
	}
	a.mu.Unlock()

	fmt.Fprintf(a.out, "Uploaded %d bytes as %s (%s)\n", len(m.Data), key, m.Kind)
	return nil
}

// takeUpload waits briefly for an upload and consumes it.
func (a *App) takeUpload(ctx context.Context) (upload, error) {
	a.mu.Lock()
	f := a.uploads
	a.mu.Unlock()

	wctx, cancel := context.WithTimeout(ctx, uploadWait)
	defer cancel()
	up, err := f.Await(wctx)
	if err != nil {
		return upload{}, errors.New("nothing uploaded: run upload <file> or enter a storage ref")
	}

	a.mu.Lock()
	if a.uploads == f {
		a.uploads = flow.NewFuture[upload]()
	}
	a.mu.Unlock()
	return up, nil
}

func (a *App) Create(ctx context.Context, args []string) error {
	r := a.reader
	req := &rpc.CreateMediaRequest{}

	var err error
	if len(args) > 0 {
		req.ChatID = args[0]
	} else if req.ChatID, err = GetSimpleText(r, "Chat ID", a.out); err != nil {
		return err
	}

	if req.StorageRef, err = GetSimpleText(r, "Storage ref (empty = last upload)", a.out); err != nil {
		return err
	}
	if req.StorageRef == "" {
		up, err := a.takeUpload(ctx)
		if err != nil {
			return err
		}
		req.StorageRef, req.MediaType = up.Key, up.Kind
	} else if req.MediaType, err = GetSimpleText(r, "Media type (image/video)", a.out); err != nil {
		return err
	}

	if req.TimerSeconds, err = GetInt(r, "Timer seconds, 0 for none", 10, a.out); err != nil {
		return err
	}
	if req.ViewOnce, err = GetYesNo(r, "View once?", a.out); err != nil {
		return err
	}
	if req.WatermarkEnabled, err = GetYesNo(r, "Watermark?", a.out); err != nil {
		return err
	}
	if req.AllowScreenshots, err = GetYesNo(r, "Allow screenshots?", a.out); err != nil {
		return err
	}
	if req.Recipients, err = GetList(r, "Recipients (comma separated user ids)", a.out); err != nil {
		return err
	}

	id, err := a.api.CreateMedia(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s\n", id)
	return nil
}

func formatInfo(info *rpc.MediaInfo, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-5s  %-12s", info.MediaID, info.MediaType, viewer.PillFor(info))

	var rules []string
	if info.ViewOnce {
		rules = append(rules, "view once")
	}
	if info.TimerSeconds > 0 {
		rules = append(rules, fmt.Sprintf("%ds timer", info.TimerSeconds))
	}
	if info.WatermarkEnabled {
		rules = append(rules, "watermark")
	}
	if !info.CanScreenshot {
		rules = append(rules, "no screenshots")
	}
	if len(rules) > 0 {
		fmt.Fprintf(&b, "  [%s]", strings.Join(rules, ", "))
	}

	fmt.Fprintf(&b, "  state=%s views=%d", info.State, info.ViewCount)
	if info.ExpiresAt != nil && !info.IsExpired {
		fmt.Fprintf(&b, " left=%ds", viewer.Remaining(*info.ExpiresAt, now))
	}
	if info.Origin != "" && info.Origin != "direct" {
		fmt.Fprintf(&b, " origin=%s", info.Origin)
	}
	return b.String()
}

func (a *App) Info(ctx context.Context, args []string) error {
	id, err := oneArg(args, "info <media-id>")
	if err != nil {
		return err
	}
	info, err := a.api.GetMediaInfo(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, formatInfo(info, time.Now()))
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	chat, err := oneArg(args, "list <chat-id>")
	if err != nil {
		return err
	}
	items, err := a.api.ListChatMedia(ctx, chat)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No media.")
		return nil
	}
	now := time.Now()
	for i := range items {
		fmt.Fprintln(a.out, formatInfo(&items[i], now))
	}
	return nil
}

func (a *App) Revoke(ctx context.Context, args []string) error {
	id, err := oneArg(args, "revoke <media-id>")
	if err != nil {
		return err
	}
	if err := a.api.Revoke(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Revoked %s\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := oneArg(args, "delete <media-id>")
	if err != nil {
		return err
	}
	if err := a.api.DeleteMedia(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

func (a *App) Report(ctx context.Context, args []string) error {
	id, err := oneArg(args, "report <media-id> [reason]")
	if err != nil {
		return err
	}
	reason := strings.Join(args[1:], " ")
	reportID, err := a.api.ReportMedia(ctx, id, reason)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Reported, ticket %s\n", reportID)
	return nil
}

func (a *App) Screenshot(ctx context.Context, args []string) error {
	id, err := oneArg(args, "screenshot <media-id>")
	if err != nil {
		return err
	}
	allowed, err := a.api.ReportScreenshot(ctx, id)
	if err != nil {
		return err
	}
	if allowed {
		fmt.Fprintln(a.out, "Screenshot allowed; the sender was notified.")
	} else {
		fmt.Fprintln(a.out, "Screenshots are not allowed for this item; the attempt was recorded.")
	}
	return nil
}

func (a *App) URL(ctx context.Context, args []string) error {
	id, err := oneArg(args, "url <media-id>")
	if err != nil {
		return err
	}
	url, err := a.api.GetMediaURL(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, url)
	return nil
}
