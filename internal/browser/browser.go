// Package browser owns the authenticated portal session. Everything
// above it consumes the crawler.Driver capability only, so the rod
// dependency stays contained here.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"nfse/internal"
	"nfse/internal/config"
)

type Session struct {
	browser *rod.Browser
	page    *rod.Page
	cfg     config.Config
}

func Launch(cfg config.Config) (*Session, error) {
	l := launcher.New().
		Headless(cfg.HeadlessUI).
		Set("disable-extensions").
		Set("disable-gpu").
		Set("no-sandbox").
		Set("disable-dev-shm-usage")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("iniciar navegador: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("conectar navegador: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("abrir página: %w", err)
	}

	return &Session{browser: b, page: page, cfg: cfg}, nil
}

func (s *Session) Close() {
	_ = s.browser.Close()
}

// Login opens the portal login page and waits for the operator to
// finish the interactive login, signalled by the dashboard URL or the
// received-notes menu becoming visible.
func (s *Session) Login(ctx context.Context, listeners internal.Listeners) error {
	if err := s.Navigate(s.cfg.LoginURL); err != nil {
		return err
	}
	listeners.Event("Faça o login no portal. A execução continua ao chegar no painel.")

	deadline := time.Now().Add(time.Duration(s.cfg.LoginWaitSec) * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("login não concluído em %ds", s.cfg.LoginWaitSec)
		}

		info, err := s.page.Info()
		if err == nil && strings.Contains(info.URL, s.cfg.DashPath) {
			break
		}
		if has, _ := s.Eval(`() => !!document.querySelector("img[src*='menu-recebidas']")`); has == true {
			break
		}
		time.Sleep(time.Second)
	}
	listeners.Event("✓ Login realizado")
	return nil
}

// OpenReceived reaches the received-notes table via the menu image,
// falling back to the submenu anchor when the layout differs.
func (s *Session) OpenReceived() error {
	_, err := s.Eval(`() => {
		var m = document.querySelector("img[src*='menu-recebidas']");
		if (m) { m.closest('a').click(); return true; }
		var a = document.querySelector("a[href*='Recebidas']");
		if (a) { a.click(); return true; }
		return false;
	}`)
	if err != nil {
		return fmt.Errorf("abrir menu recebidas: %w", err)
	}
	time.Sleep(time.Second)
	_, _ = s.Eval(`() => {
		var sub = document.querySelector("a[href*='/NFSe/Recebidas']");
		if (sub) sub.click();
	}`)
	time.Sleep(time.Second)
	return nil
}

func (s *Session) OpenIssued() error {
	if err := s.Navigate(s.cfg.IssuedURL); err != nil {
		return err
	}
	time.Sleep(time.Second)
	return nil
}

func (s *Session) Navigate(url string) error {
	if err := s.page.Navigate(url); err != nil {
		return fmt.Errorf("navegar %s: %w", url, err)
	}
	return s.page.WaitLoad()
}

func (s *Session) Reload() error {
	if err := s.page.Reload(); err != nil {
		return err
	}
	return s.page.WaitLoad()
}

func (s *Session) Eval(js string, args ...any) (any, error) {
	obj, err := s.page.Eval(js, args...)
	if err != nil {
		return nil, err
	}
	return obj.Value.Val(), nil
}

func (s *Session) WaitElement(selector string, timeout time.Duration) error {
	_, err := s.page.Timeout(timeout).Element(selector)
	return err
}

// SessionInfo snapshots cookies and user agent for the download domain.
// It is the only state that crosses from the UI-driving domain.
func (s *Session) SessionInfo() (internal.SessionInfo, error) {
	cookies, err := s.page.Cookies(nil)
	if err != nil {
		return internal.SessionInfo{}, fmt.Errorf("ler cookies: %w", err)
	}

	info := internal.SessionInfo{}
	for _, c := range cookies {
		info.Cookies = append(info.Cookies, internal.Cookie{Name: c.Name, Value: c.Value, Domain: c.Domain})
	}

	ua, err := s.Eval(`() => navigator.userAgent`)
	if err == nil {
		if str, ok := ua.(string); ok {
			info.UserAgent = str
		}
	}
	return info, nil
}
