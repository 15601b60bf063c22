// Package publish pushes rendered reports to a remote store.
package publish

import (
	"context"
	"fmt"
	"path"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	JSONFile = "status.json"
	HTMLFile = "status.html"
)

// Connector opens a session against the remote store.
type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one stateful connection. Close is called exactly once.
type Session interface {
	WriteFile(ctx context.Context, remotePath string, content []byte) error
	Close() error
}

type WriteOutcome struct {
	Path string
	Err  error
}

// Outcome records what a publish attempt did. It is for logging only.
type Outcome struct {
	ConnectErr error
	Writes     []WriteOutcome
	CloseErr   error
}

// Err combines every failure of the attempt.
func (o Outcome) Err() error {
	err := o.ConnectErr
	for _, w := range o.Writes {
		if w.Err != nil {
			err = multierr.Append(err, fmt.Errorf("write %s: %w", w.Path, w.Err))
		}
	}
	if o.CloseErr != nil {
		err = multierr.Append(err, fmt.Errorf("disconnect: %w", o.CloseErr))
	}
	return err
}

type Publisher struct {
	Connector Connector
	RemoteDir string
	Logger    *zap.Logger
}

func NewPublisher(c Connector, remoteDir string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if remoteDir == "" {
		remoteDir = "."
	}
	return &Publisher{Connector: c, RemoteDir: remoteDir, Logger: logger}
}

func (p *Publisher) JSONPath() string { return path.Join(p.RemoteDir, JSONFile) }
func (p *Publisher) HTMLPath() string { return path.Join(p.RemoteDir, HTMLFile) }

// Publish writes both forms over a single session. Both writes are always
// attempted once connected, and the session is closed exactly once.
// Failures are logged and reported in the Outcome, never panicked or returned.
func (p *Publisher) Publish(ctx context.Context, compact, human string) (out Outcome) {
	sess, err := p.Connector.Connect(ctx)
	if err != nil {
		p.Logger.Warn("publish_connect_failed", zap.Error(err))
		out.ConnectErr = err
		return out
	}
	defer func() {
		if err := sess.Close(); err != nil {
			p.Logger.Warn("publish_disconnect_failed", zap.Error(err))
			out.CloseErr = err
		}
	}()

	for _, f := range []struct {
		path    string
		content string
	}{
		{p.JSONPath(), compact},
		{p.HTMLPath(), human},
	} {
		out.Writes = append(out.Writes, p.write(ctx, sess, f.path, []byte(f.content)))
	}
	return out
}

func (p *Publisher) write(ctx context.Context, sess Session, remotePath string, content []byte) (w WriteOutcome) {
	w.Path = remotePath
	defer func() {
		if r := recover(); r != nil {
			w.Err = fmt.Errorf("panic: %v", r)
		}
		if w.Err != nil {
			p.Logger.Warn("publish_write_failed", zap.String("path", remotePath), zap.Error(w.Err))
			return
		}
		p.Logger.Info("publish_write_ok", zap.String("path", remotePath), zap.Int("bytes", len(content)))
	}()
	w.Err = sess.WriteFile(ctx, remotePath, content)
	return w
}
