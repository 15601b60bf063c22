package publish

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSession struct {
	failOn  map[string]error
	panicOn string
	written map[string]string
	order   []string
	closes  int
	closeEr error
}

func (f *fakeSession) WriteFile(ctx context.Context, p string, content []byte) error {
	f.order = append(f.order, p)
	if p == f.panicOn {
		panic("remote store exploded")
	}
	if err := f.failOn[p]; err != nil {
		return err
	}
	if f.written == nil {
		f.written = map[string]string{}
	}
	f.written[p] = string(content)
	return nil
}

func (f *fakeSession) Close() error {
	f.closes++
	return f.closeEr
}

type fakeConnector struct {
	sess *fakeSession
	err  error
	n    int
}

func (f *fakeConnector) Connect(ctx context.Context) (Session, error) {
	f.n++
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func TestPublish_WritesBothPaths(t *testing.T) {
	sess := &fakeSession{}
	p := NewPublisher(&fakeConnector{sess: sess}, "/srv/status", nil)

	out := p.Publish(context.Background(), `[]`, `<html></html>`)
	if err := out.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.written["/srv/status/status.json"] != `[]` || sess.written["/srv/status/status.html"] != `<html></html>` {
		t.Fatalf("unexpected writes: %+v", sess.written)
	}
	if sess.closes != 1 {
		t.Fatalf("want exactly one close, got %d", sess.closes)
	}
}

func TestPublish_FirstWriteFailureStillAttemptsSecond(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	boom := errors.New("transient i/o error")
	sess := &fakeSession{failOn: map[string]error{"out/status.json": boom}}
	p := NewPublisher(&fakeConnector{sess: sess}, "out", zap.New(core))

	out := p.Publish(context.Background(), `[]`, `<html></html>`)
	if len(sess.order) != 2 {
		t.Fatalf("both writes must be attempted, got %v", sess.order)
	}
	if sess.written["out/status.html"] == "" {
		t.Fatalf("html write should succeed after json failure")
	}
	if !errors.Is(out.Err(), boom) {
		t.Fatalf("outcome should carry the write failure, got %v", out.Err())
	}
	if sess.closes != 1 {
		t.Fatalf("want exactly one close, got %d", sess.closes)
	}
	if logs.FilterMessage("publish_write_failed").Len() != 1 {
		t.Fatalf("want a publish_write_failed log, got %v", logs.All())
	}
}

func TestPublish_PanickingWriteIsContained(t *testing.T) {
	sess := &fakeSession{panicOn: "status.json"}
	p := NewPublisher(&fakeConnector{sess: sess}, "", nil)

	out := p.Publish(context.Background(), `[]`, `<html></html>`)
	if out.Err() == nil || len(out.Writes) != 2 || out.Writes[1].Err != nil {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if sess.closes != 1 {
		t.Fatalf("want exactly one close, got %d", sess.closes)
	}
}

func TestPublish_ConnectFailure(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewPublisher(&fakeConnector{err: boom}, "", nil)

	out := p.Publish(context.Background(), `[]`, `<html></html>`)
	if !errors.Is(out.Err(), boom) || len(out.Writes) != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestPublish_CloseFailureIsRecorded(t *testing.T) {
	boom := errors.New("eof on close")
	sess := &fakeSession{closeEr: boom}
	p := NewPublisher(&fakeConnector{sess: sess}, "", nil)

	out := p.Publish(context.Background(), `[]`, `<html></html>`)
	if !errors.Is(out.CloseErr, boom) || !errors.Is(out.Err(), boom) {
		t.Fatalf("close failure should be recorded, got %+v", out)
	}
	if len(sess.written) != 2 {
		t.Fatalf("writes should have succeeded: %+v", sess.written)
	}
}
