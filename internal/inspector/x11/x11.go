package x11

import (
	"fmt"
	"log"

	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/screensaver"
	"github.com/jezek/xgb/xproto"

	"github.com/Rubicon0149/WorkBuddy/internal/inspector"
)

// Inspector reads the active window over EWMH/ICCCM and the idle time via
// the MIT-SCREEN-SAVER extension. Two connections are held: xgbutil wraps
// its own, and the screensaver extension needs a raw xgb connection.
type Inspector struct {
	xu   *xgbutil.XUtil
	conn *xgb.Conn
	root xproto.Window
}

func New() (*Inspector, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	// EWMH support check; modern window managers all pass this.
	if _, err := ewmh.CurrentDesktopGet(xu); err != nil {
		log.Printf("Warning: EWMH potentially not supported by window manager: %v", err)
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to open screensaver connection: %w", err)
	}
	if err := screensaver.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("MIT-SCREEN-SAVER extension unavailable: %w", err)
	}
	root := xproto.Setup(conn).DefaultScreen(conn).Root

	return &Inspector{xu: xu, conn: conn, root: root}, nil
}

func (i *Inspector) CurrentForegroundWindow() (inspector.FocusInfo, error) {
	activeWinID, err := ewmh.ActiveWindowGet(i.xu)
	if err != nil {
		return inspector.FocusInfo{}, fmt.Errorf("%w: could not get active window: %v", inspector.ErrUnavailable, err)
	}
	if activeWinID == 0 {
		// Desktop focused, nothing to attribute time to.
		return inspector.FocusInfo{}, inspector.ErrUnavailable
	}

	// _NET_WM_NAME preferred, WM_NAME as fallback.
	title, err := ewmh.WmNameGet(i.xu, activeWinID)
	if err != nil || title == "" {
		title, err = icccm.WmNameGet(i.xu, activeWinID)
		if err != nil || title == "" {
			title = "Unknown Title"
		}
	}

	appName := "Unknown App"
	if classHints, err := icccm.WmClassGet(i.xu, activeWinID); err == nil && classHints != nil {
		appName = classHints.Class
	}

	pid := 0
	if p, err := ewmh.WmPidGet(i.xu, activeWinID); err == nil {
		pid = int(p)
	}

	return inspector.FocusInfo{AppName: appName, Title: title, PID: pid}, nil
}

func (i *Inspector) IdleSeconds() (int, error) {
	reply, err := screensaver.QueryInfo(i.conn, xproto.Drawable(i.root)).Reply()
	if err != nil {
		return 0, fmt.Errorf("%w: screensaver query failed: %v", inspector.ErrUnavailable, err)
	}
	return int(reply.MsSinceUserInput / 1000), nil
}

func (i *Inspector) Close() error {
	i.conn.Close()
	i.xu.Conn().Close()
	return nil
}
