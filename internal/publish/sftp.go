package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

type SFTPConfig struct {
	Host           string
	Port           int
	Username       string
	Password       string
	KeyPath        string
	KnownHostsPath string
	Timeout        time.Duration
}

// SFTPConnector dials SSH and opens an SFTP subsystem per Connect.
type SFTPConnector struct {
	cfg SFTPConfig
}

func NewSFTPConnector(cfg SFTPConfig) *SFTPConnector {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &SFTPConnector{cfg: cfg}
}

func (c *SFTPConnector) clientConfig() (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod
	if c.cfg.KeyPath != "" {
		key, err := os.ReadFile(c.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	if c.cfg.Password != "" {
		auth = append(auth, ssh.Password(c.cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("sftp: no password or key configured")
	}

	// without a known_hosts path the host key is not verified
	hostKey := ssh.InsecureIgnoreHostKey()
	if c.cfg.KnownHostsPath != "" {
		cb, err := trustOnFirstUse(c.cfg.KnownHostsPath)
		if err != nil {
			return nil, err
		}
		hostKey = cb
	}

	return &ssh.ClientConfig{
		User:            c.cfg.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         c.cfg.Timeout,
	}, nil
}

func (c *SFTPConnector) Connect(ctx context.Context) (Session, error) {
	sshCfg, err := c.clientConfig()
	if err != nil {
		return nil, err
	}
	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	d := &net.Dialer{Timeout: c.cfg.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial sftp %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("open sftp subsystem: %w", err)
	}
	return &sftpSession{ssh: sshClient, sftp: client}, nil
}

type sftpSession struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

func (s *sftpSession) WriteFile(ctx context.Context, remotePath string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := s.sftp.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("open %s: %w", remotePath, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", remotePath, err)
	}
	return f.Close()
}

func (s *sftpSession) Close() error {
	err := s.sftp.Close()
	if cerr := s.ssh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
